package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type versionHandler struct {
	versions VersionDirectory
}

func versionID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid version id"})
		return 0, false
	}
	return id, true
}

func (h *versionHandler) get(c *gin.Context) {
	id, ok := versionID(c)
	if !ok {
		return
	}

	version, err := h.versions.Get(c.Request.Context(), id, permissions(c))
	if err != nil {
		writeError(c, err)
		return
	}
	deps, err := h.versions.Dependencies(c.Request.Context(), version.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":           version.ID,
		"project_id":   version.ProjectID,
		"version":      version.VersionString,
		"visibility":   version.Visibility,
		"post_id":      version.PostID,
		"dependencies": deps,
		"created_at":   version.CreatedAt,
	})
}

type deleteRequest struct {
	Comment string `json:"comment"`
}

func (h *versionHandler) softDelete(c *gin.Context) {
	id, ok := versionID(c)
	if !ok {
		return
	}
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	version, err := h.versions.Get(c.Request.Context(), id, permissions(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.versions.SoftDelete(c.Request.Context(), version.ProjectID, version.ID, req.Comment); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *versionHandler) restore(c *gin.Context) {
	id, ok := versionID(c)
	if !ok {
		return
	}

	version, err := h.versions.Get(c.Request.Context(), id, permissions(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.versions.Restore(c.Request.Context(), version.ProjectID, version.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *versionHandler) hardDelete(c *gin.Context) {
	id, ok := versionID(c)
	if !ok {
		return
	}
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	perms := permissions(c)
	project, err := h.versions.Project(c.Request.Context(), c.Param("owner"), c.Param("slug"), perms)
	if err != nil {
		writeError(c, err)
		return
	}
	version, err := h.versions.Get(c.Request.Context(), id, perms)
	if err != nil {
		writeError(c, err)
		return
	}
	if version.ProjectID != project.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if err := h.versions.HardDelete(c.Request.Context(), project, version, req.Comment); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *versionHandler) auditLog(c *gin.Context) {
	project, err := h.versions.Project(c.Request.Context(), c.Param("owner"), c.Param("slug"), permissions(c))
	if err != nil {
		writeError(c, err)
		return
	}
	entries, err := h.versions.AuditLog(c.Request.Context(), project.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

type savePostRequest struct {
	PostID int64 `json:"post_id" binding:"required"`
}

func (h *versionHandler) savePost(c *gin.Context) {
	id, ok := versionID(c)
	if !ok {
		return
	}
	var req savePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.versions.SaveExternalPost(c.Request.Context(), id, req.PostID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
