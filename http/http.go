package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"github.com/nasdf/docstore/codec"
	"github.com/nasdf/docstore/core"
	"github.com/nasdf/docstore/dispatch"
	"github.com/nasdf/docstore/node"
)

// maxBodySize limits the size of request bodies.
const maxBodySize = 32 << 20

// ListenAndServe starts an http server bound to the given address.
func ListenAndServe(m *core.Manager, addr string, secret string) error {
	return http.ListenAndServe(addr, Handler(m, secret))
}

// Handler returns an http.Handler that serves the collections of the given manager.
//
// When secret is not empty every request must carry an HS256 signed bearer token.
func Handler(m *core.Manager, secret string) http.Handler {
	s := &server{manager: m}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{collection}", s.list)
	mux.HandleFunc("POST /{collection}", s.create)
	mux.HandleFunc("GET /{collection}/_events", s.events)
	mux.HandleFunc("GET /{collection}/{name}", s.get)
	mux.HandleFunc("PUT /{collection}/{name}", s.save)
	mux.HandleFunc("DELETE /{collection}/{name}", s.remove)

	if secret == "" {
		return mux
	}
	return authenticate([]byte(secret), mux)
}

type server struct {
	manager  *core.Manager
	upgrader websocket.Upgrader
}

func (s *server) collection(w http.ResponseWriter, r *http.Request) (*core.Collection, bool) {
	c, err := s.manager.Collection(r.PathValue("collection"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return c, true
}

func (s *server) list(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	q := c.QueryAll()
	defer q.Close()

	docs, err := q.FetchAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make(map[string]json.RawMessage, len(docs))
	for _, doc := range docs {
		n, ok := doc.Node()
		if !ok {
			continue
		}
		data, err := codec.DocumentJSON{}.Encode(n)
		if err != nil {
			writeError(w, err)
			return
		}
		out[doc.Name] = data
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) get(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	q := c.QueryByName(r.PathValue("name"))
	defer q.Close()

	doc, err := q.FetchFirst(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if doc == nil {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}
	var (
		data        []byte
		contentType string
	)
	switch root := doc.Root.(type) {
	case *node.Node:
		data, err = codec.DocumentJSON{}.Encode(root)
		contentType = "application/json"
	case image.Image:
		data, err = codec.PNG{}.Encode(root)
		contentType = "image/png"
	case codec.Blob:
		data = root
		contentType = "application/octet-stream"
	default:
		err = fmt.Errorf("%w: %T", codec.ErrUnsupportedFormat, root)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

func (s *server) create(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	root, err := readDocument(r)
	if err != nil {
		writeError(w, err)
		return
	}
	name, err := c.Create(r.Context(), root)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": name})
}

func (s *server) save(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	root, err := readDocument(r)
	if err != nil {
		writeError(w, err)
		return
	}
	err = c.Save(r.Context(), &core.Document{Name: r.PathValue("name"), Root: root})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) remove(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	err := c.Remove(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Event is a change notification sent over the events websocket.
//
// The first event on a connection only carries the subscription id.
type Event struct {
	Subscription string `json:"subscription,omitempty"`
	Name         string `json:"name,omitempty"`
	Change       string `json:"change,omitempty"`
}

// events streams change notifications of the collection over a websocket.
//
// The optional name parameter restricts events to one document and the optional
// changes parameter is a comma separated list of change names.
func (s *server) events(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	mask := core.All
	if v := r.URL.Query().Get("changes"); v != "" {
		mask, ok = core.ParseChanges(strings.Split(v, ","))
		if !ok {
			http.Error(w, "invalid changes", http.StatusBadRequest)
			return
		}
	}
	var q *core.Query
	if name := r.URL.Query().Get("name"); name != "" {
		q = c.QueryByName(name)
	} else {
		q = c.QueryAll()
	}
	defer q.Close()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Warningf("events upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events := make(chan Event, 64)
	id, err := q.Subscribe(core.Observer{
		Executor: dispatch.Inline,
		Changes:  mask,
		Fn: func(name string, change core.Changes) {
			select {
			case events <- Event{Name: name, Change: change.String()}:
			default:
				glog.Warningf("events %s: dropping %s for slow client", c.Name(), name)
			}
		},
	})
	if err != nil {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error()))
		return
	}
	if err := conn.WriteJSON(Event{Subscription: id}); err != nil {
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	for {
		select {
		case e := <-events:
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func readDocument(r *http.Request) (*node.Node, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	v, err := codec.DocumentJSON{}.Decode(data)
	if err != nil {
		return nil, err
	}
	return v.(*node.Node), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	out, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(out)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrDocumentUnavailable):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrInvalidLocation),
		errors.Is(err, codec.ErrUnsupportedFormat),
		errors.Is(err, codec.ErrInvalidKey):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		glog.Errorf("request failed: %v", err)
	}
	http.Error(w, err.Error(), status)
}

// authenticate rejects requests without a valid HS256 bearer token.
//
// The token can also be passed in the token query parameter for websocket clients.
func authenticate(secret []byte, next http.Handler) http.Handler {
	keyFunc := func(t *jwt.Token) (any, error) {
		return secret, nil
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		_, err := jwt.Parse(token, keyFunc, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid token: %v", err), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
