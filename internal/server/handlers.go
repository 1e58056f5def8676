package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/aiomayo/portwatch/internal/inventory"
	"github.com/aiomayo/portwatch/internal/killer"
	"github.com/aiomayo/portwatch/internal/process"
	"github.com/aiomayo/portwatch/internal/query"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

type Inventory interface {
	List(ctx context.Context, f query.Filter, key query.SortKey) ([]inventory.Record, error)
	Kill(ctx context.Context, pid int32) killer.Result
	Stats(ctx context.Context) (query.Stats, error)
	Refresh(ctx context.Context) (query.Stats, error)
}

type Handlers struct {
	inv Inventory
}

func NewHandlers(inv Inventory) *Handlers {
	return &Handlers{inv: inv}
}

type killResponse struct {
	PID        int32          `json:"pid"`
	Outcome    killer.Outcome `json:"outcome"`
	Detail     string         `json:"detail,omitempty"`
	Terminated bool           `json:"terminated"`
}

func (h *Handlers) Ports(c *gin.Context) {
	proto, err := query.ParseProtocol(c.Query("protocol"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	key, err := query.ParseSortKey(c.Query("sort"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := h.inv.List(c.Request.Context(), query.Filter{Protocol: proto, Text: c.Query("q")}, key)
	if err != nil {
		h.collectionFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handlers) Stats(c *gin.Context) {
	stats, err := h.inv.Stats(c.Request.Context())
	if err != nil {
		h.collectionFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handlers) Refresh(c *gin.Context) {
	stats, err := h.inv.Refresh(c.Request.Context())
	if err != nil {
		h.collectionFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handlers) Kill(c *gin.Context) {
	pid, err := strconv.ParseInt(c.Param("pid"), 10, 32)
	if err != nil || !process.ValidPID(int32(pid)) {
		c.JSON(http.StatusBadRequest, killResponse{
			PID:     int32(pid),
			Outcome: killer.Failed,
			Detail:  killer.DetailInvalidPID,
		})
		return
	}

	r := h.inv.Kill(c.Request.Context(), int32(pid))
	c.JSON(killStatus(r), killResponse{
		PID:        r.PID,
		Outcome:    r.Outcome,
		Detail:     r.Detail,
		Terminated: r.Terminated(),
	})
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) collectionFailed(c *gin.Context, err error) {
	log.Error("collection failed", "err", err, "request_id", c.GetString(requestIDKey))
	c.JSON(collectionStatus(err), gin.H{"error": "failed to fetch ports data"})
}

func collectionStatus(err error) int {
	switch {
	case inventory.IsPlatformUnsupported(err):
		return http.StatusInternalServerError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case inventory.IsTransient(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func killStatus(r killer.Result) int {
	switch r.Outcome {
	case killer.Terminated, killer.NotFound:
		return http.StatusOK
	case killer.PermissionDenied:
		return http.StatusForbidden
	case killer.Failed:
		if r.Detail == killer.DetailInvalidPID {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
