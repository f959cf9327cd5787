package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"Vault/internal/backup"
	dom "Vault/internal/domain"
	"Vault/internal/dto"
	"Vault/internal/report"
	"Vault/internal/service"
	"Vault/internal/store"

	"github.com/gin-gonic/gin"
)

type RecordHandler struct {
	svc     *service.RecordService
	backups *backup.Writer
	logger  *log.Logger
	now     func() time.Time
}

// NewRecordHandler wires the record endpoints. backups may be nil.
func NewRecordHandler(svc *service.RecordService, backups *backup.Writer, logger *log.Logger) *RecordHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &RecordHandler{svc: svc, backups: backups, logger: logger, now: time.Now}
}

// Create godoc
// @Summary      Add a record
// @Tags         records
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateRecordRequest  true  "Record body"
// @Success      201   {object}  dto.RecordResponse
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /records [post]
func (h *RecordHandler) Create(c *gin.Context) {
	var req dto.CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.svc.AddRecord(c.Request.Context(), req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, recordToResponse(rec))
}

// List godoc
// @Summary      List all records
// @Tags         records
// @Produce      json
// @Success      200  {object}  dto.ListRecordsResponse
// @Router       /records [get]
func (h *RecordHandler) List(c *gin.Context) {
	list, err := h.svc.ListRecords(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListRecordsResponse{Items: recordsToResponses(list)})
}

// Update godoc
// @Summary      Rename a record
// @Tags         records
// @Accept       json
// @Produce      json
// @Param        id    path      string  true  "Record ID"
// @Param        body  body      dto.UpdateRecordRequest  true  "New name"
// @Success      200   {object}  dto.RecordResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /records/{id} [patch]
func (h *RecordHandler) Update(c *gin.Context) {
	var req dto.UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := h.svc.UpdateRecord(c.Request.Context(), c.Param("id"), *req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, recordToResponse(*rec))
}

// Delete godoc
// @Summary      Delete a record
// @Tags         records
// @Produce      json
// @Param        id   path      string  true  "Record ID"
// @Success      200  {object}  dto.RecordResponse
// @Failure      404  {object}  map[string]string
// @Router       /records/{id} [delete]
func (h *RecordHandler) Delete(c *gin.Context) {
	rec, err := h.svc.DeleteRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, recordToResponse(*rec))
}

// Search godoc
// @Summary      Search records by id or name
// @Tags         records
// @Produce      json
// @Param        by   query     string  false  "id or name (default name)"
// @Param        q    query     string  true   "Keyword"
// @Success      200  {object}  dto.ListRecordsResponse
// @Router       /records/search [get]
func (h *RecordHandler) Search(c *gin.Context) {
	by := c.DefaultQuery("by", "name")
	list, err := h.svc.SearchRecords(c.Request.Context(), by, c.Query("q"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListRecordsResponse{Items: recordsToResponses(list)})
}

// Sort godoc
// @Summary      List records sorted by a field
// @Tags         records
// @Produce      json
// @Param        field  query     string  false  "name, id, date (default name)"
// @Param        order  query     string  false  "asc or desc (default asc)"
// @Success      200    {object}  dto.ListRecordsResponse
// @Router       /records/sort [get]
func (h *RecordHandler) Sort(c *gin.Context) {
	field := c.DefaultQuery("field", "name")
	order := c.DefaultQuery("order", "asc")
	list, err := h.svc.SortRecords(c.Request.Context(), field, order)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListRecordsResponse{Items: recordsToResponses(list)})
}

// Stats godoc
// @Summary      Vault statistics
// @Tags         records
// @Produce      json
// @Success      200  {object}  dto.StatsResponse
// @Router       /stats [get]
func (h *RecordHandler) Stats(c *gin.Context) {
	list, err := h.svc.ListRecords(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	st := report.Compute(list, h.now())
	resp := dto.StatsResponse{
		Total:             st.Total,
		LastModified:      st.LastModified,
		LongestName:       st.LongestName,
		LongestNameLength: st.LongestNameLen,
		EarliestRecord:    st.EarliestCreated,
		LatestRecord:      st.LatestCreated,
	}
	if h.backups != nil {
		if latest, err := h.backups.Latest(); err == nil {
			resp.LatestBackup = latest
		} else {
			h.logger.Printf("list backups: %v", err)
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecordHandler) fail(c *gin.Context, err error) {
	var connErr *store.ConnectionError
	switch {
	case dom.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrConfiguration), errors.As(err, &connErr):
		h.logger.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
	default:
		h.logger.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func recordToResponse(r dom.Record) dto.RecordResponse {
	return dto.RecordResponse{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt}
}

func recordsToResponses(list []dom.Record) []dto.RecordResponse {
	out := make([]dto.RecordResponse, len(list))
	for i := range list {
		out[i] = recordToResponse(list[i])
	}
	return out
}
