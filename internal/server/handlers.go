package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"driftwatch/internal/changelog"
	"driftwatch/internal/git"
	"driftwatch/internal/indexer"
	"driftwatch/internal/types"
)

const (
	defaultChangeLimit = 200
	defaultCommitLimit = 50
)

// ErrorResponse is the JSON body returned for every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type checkoutRequest struct {
	Hash   string `json:"hash"`
	Branch string `json:"branch"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.version})
}

func (s *Server) handleListChanges(c *gin.Context) {
	limit, err := intQuery(c, "limit", defaultChangeLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}
	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}

	entries, err := s.reader.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "INTERNAL"})
		return
	}
	filtered := changelog.Filter(entries, c.Query("date"), c.Query("branch"), c.Query("file"))

	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	start := min(offset, len(filtered))
	end := min(start+limit, len(filtered))

	c.JSON(http.StatusOK, gin.H{"items": filtered[start:end], "total": len(filtered)})
}

func (s *Server) handleChangeDetail(c *gin.Context) {
	detail, err := s.reader.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, changelog.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Change not found", Code: "NOT_FOUND"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "INTERNAL"})
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) handleListCommits(c *gin.Context) {
	limit, err := intQuery(c, "limit", defaultCommitLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}
	commits, err := s.repo.Commits(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "GIT_ERROR"})
		return
	}
	if commits == nil {
		commits = []types.Commit{}
	}
	c.JSON(http.StatusOK, gin.H{"items": commits})
}

func (s *Server) handleCommitDetail(c *gin.Context) {
	hash := c.Param("hash")
	diff, err := s.repo.ShowDiff(c.Request.Context(), hash)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "GIT_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hash": hash, "diff": diff})
}

func (s *Server) handleStatus(c *gin.Context) {
	status, err := s.repo.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "GIT_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (s *Server) handleCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}
	if req.Hash == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "hash is required", Code: "INVALID_REQUEST"})
		return
	}
	branch, err := s.repo.CheckoutReview(c.Request.Context(), req.Hash, req.Branch)
	if err != nil {
		code := "GIT_ERROR"
		if errors.Is(err, git.ErrDirtyWorktree) {
			code = "DIRTY_WORKTREE"
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: code})
		return
	}
	c.JSON(http.StatusOK, gin.H{"branch": branch})
}

func (s *Server) handleNamespaces(c *gin.Context) {
	ref := c.DefaultQuery("ref", git.WorktreeRef)
	snapshot, err := s.builder.Snapshot(c.Request.Context(), ref)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "SCAN_FAILED"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) handleNamespacesDiff(c *gin.Context) {
	refA := c.DefaultQuery("ref_a", git.WorktreeRef)
	refB := c.DefaultQuery("ref_b", "HEAD")

	snapA, err := s.builder.Snapshot(c.Request.Context(), refA)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "SCAN_FAILED"})
		return
	}
	snapB, err := s.builder.Snapshot(c.Request.Context(), refB)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "SCAN_FAILED"})
		return
	}
	c.JSON(http.StatusOK, indexer.Diff(snapA, snapB))
}

func intQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	return v, nil
}
