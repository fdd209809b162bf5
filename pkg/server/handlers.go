package server

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/gridengine/pkg/buildinfo"
	gerrors "github.com/matzehuels/gridengine/pkg/errors"
	"github.com/matzehuels/gridengine/pkg/grid"
	gridio "github.com/matzehuels/gridengine/pkg/io"
	"github.com/matzehuels/gridengine/pkg/render/dot"
	"github.com/matzehuels/gridengine/pkg/render/text"
)

type createRequest struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

type addRequest struct {
	ID string `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
	W  int    `json:"w"`
	H  int    `json:"h"`
}

type moveRequest struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

// itemResponse is returned by item mutations: the item's resulting geometry
// (or last geometry for removals) and everything the call changed.
type itemResponse struct {
	Node    grid.Node     `json:"node"`
	Changes []grid.Change `json:"changes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	names, err := s.layouts.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	names = append(names, s.open.names()...)
	slices.Sort(names)
	writeJSON(w, http.StatusOK, map[string][]string{"layouts": slices.Compact(names)})
}

func (s *Server) handleCreateLayout(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Rows > s.maxRows {
		s.writeError(w, r, gerrors.New(gerrors.ErrCodeInvalidInput, "rows %d exceeds the limit of %d", req.Rows, s.maxRows))
		return
	}
	l, err := s.create(r.Context(), chi.URLParam(r, "name"), req.Rows, req.Cols)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer l.mu.Unlock()
	s.writeDocument(w, r, http.StatusCreated, l.engine)
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	l, err := s.get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer l.mu.Unlock()
	s.writeDocument(w, r, http.StatusOK, l.engine)
}

func (s *Server) writeDocument(w http.ResponseWriter, r *http.Request, status int, e *grid.Engine) {
	data, err := gridio.Marshal(e)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (s *Server) handleDeleteLayout(w http.ResponseWriter, r *http.Request) {
	if err := s.remove(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	l, err := s.get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer l.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string][]grid.Node{"nodes": l.engine.Nodes()})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	l, err := s.get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer l.mu.Unlock()
	if err := l.engine.CheckConsistency(); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"consistent": true})
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	l, err := s.get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer l.mu.Unlock()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(text.Format(l.engine.Grid(), s.cellSpace)))
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	l, err := s.get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	v := l.engine.Grid()
	src := dot.ToDOT(l.engine.Nodes(), dot.Options{Cols: v.Cols(), Rows: v.Rows()})
	l.mu.Unlock()

	svg, err := dot.RenderSVG(r.Context(), src)
	if err != nil {
		s.writeError(w, r, gerrors.Wrap(gerrors.ErrCodeInternal, err, "render svg"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	l, err := s.get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer l.mu.Unlock()

	var node grid.Node
	cs, err := s.mutate(r.Context(), l, func(e *grid.Engine) error {
		if err := s.checkRows(req.Y, req.H); err != nil {
			return err
		}
		var err error
		node, err = e.AddItem(req.ID, req.X, req.Y, req.W, req.H)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemResponse{Node: node, Changes: cs.Changes})
}

func (s *Server) handleMoveItem(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.X == nil || req.Y == nil {
		s.writeError(w, r, gerrors.New(gerrors.ErrCodeInvalidInput, "x and y are required"))
		return
	}
	l, err := s.get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer l.mu.Unlock()

	id := chi.URLParam(r, "id")
	cs, err := s.mutate(r.Context(), l, func(e *grid.Engine) error {
		if n, ok := e.Node(id); ok {
			if err := s.checkRows(*req.Y, n.H); err != nil {
				return err
			}
		}
		return e.MoveItem(id, *req.X, *req.Y)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	node, _ := l.engine.Node(id)
	writeJSON(w, http.StatusOK, itemResponse{Node: node, Changes: cs.Changes})
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	l, err := s.get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer l.mu.Unlock()

	var node grid.Node
	cs, err := s.mutate(r.Context(), l, func(e *grid.Engine) error {
		var err error
		node, err = e.RemoveItem(chi.URLParam(r, "id"))
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemResponse{Node: node, Changes: cs.Changes})
}

// checkRows rejects an item whose bottom edge y+h passes the row limit.
func (s *Server) checkRows(y, h int) error {
	if h > s.maxRows || y > s.maxRows-h {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "item at row %d with height %d passes the limit of %d rows", y, h, s.maxRows)
	}
	return nil
}
