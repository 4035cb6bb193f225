package web

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"zigbee-endpoint/internal/device"
)

// parseID accepts decimal or 0x-prefixed hex.
func parseID(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

func (s *Server) handleAPIEndpoint(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) handleAPICluster(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("cluster"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cluster id"})
		return
	}
	for _, c := range s.snapshot().InClusters {
		if c.ID == id {
			s.writeJSON(w, http.StatusOK, c)
			return
		}
	}
	s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "cluster not found"})
}

type setAttributeRequest struct {
	Value interface{} `json:"value"`
}

var errAttributeNotFound = errors.New("attribute not found")

func (s *Server) handleAPISetAttribute(w http.ResponseWriter, r *http.Request) {
	clusterID, err := parseID(r.PathValue("cluster"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cluster id"})
		return
	}
	attrID, err := parseID(r.PathValue("attr"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid attribute id"})
		return
	}

	var req setAttributeRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var value interface{}
	s.disp.View(func(d *device.Device) {
		c := d.InCluster(clusterID)
		if c == nil || c.Attribute(attrID) == nil {
			err = errAttributeNotFound
			return
		}
		a := c.Attribute(attrID)
		if err = a.SetValue(req.Value); err == nil {
			value = a.Value()
		}
	})
	switch {
	case errors.Is(err, errAttributeNotFound):
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	case err != nil:
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.wsHub.Broadcast(Event{Type: EventAttribute, ClusterID: clusterID, Data: map[string]any{
		"cluster_id": clusterID,
		"attr_id":    attrID,
		"value":      value,
	}})
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "value": value})
}

type pendingView struct {
	ClusterID    uint16                 `json:"cluster_id"`
	AttrID       uint16                 `json:"attr_id"`
	Type         uint8                  `json:"type"`
	Value        interface{}            `json:"value"`
	Reporting    device.ReportingConfig `json:"reporting"`
	LastReported string                 `json:"last_reported,omitempty"`
}

func (s *Server) handleAPIPending(w http.ResponseWriter, r *http.Request) {
	views := []pendingView{}
	s.disp.View(func(d *device.Device) {
		for _, p := range d.PendingReports() {
			v := pendingView{
				ClusterID: p.ClusterID,
				AttrID:    p.Attribute.ID(),
				Type:      p.Attribute.Type(),
				Value:     p.Attribute.Value(),
				Reporting: p.Attribute.Reporting(),
			}
			if t := p.Attribute.LastReported(); !t.IsZero() {
				v.LastReported = t.Format(time.RFC3339)
			}
			views = append(views, v)
		}
	})
	s.writeJSON(w, http.StatusOK, views)
}

type frameRequest struct {
	ClusterID uint16 `json:"cluster_id"`
	Frame     string `json:"frame"` // hex
}

type frameResponse struct {
	Response string `json:"response,omitempty"` // hex
	Error    string `json:"error,omitempty"`
}

// handleAPIFrame injects a raw ZCL frame, as if received from the network.
func (s *Server) handleAPIFrame(w http.ResponseWriter, r *http.Request) {
	var req frameRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	frame, err := hex.DecodeString(req.Frame)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "frame must be hex"})
		return
	}

	resp, err := s.disp.Handle(req.ClusterID, frame)
	out := frameResponse{}
	if resp != nil {
		out.Response = hex.EncodeToString(resp)
	}
	if err != nil {
		out.Error = err.Error()
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAPIListClusters(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no registry"})
		return
	}
	s.writeJSON(w, http.StatusOK, s.registry.All())
}

func (s *Server) handleAPIVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("writeJSON encode failed", "err", err)
	}
}
