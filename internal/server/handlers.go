package server

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"codeberg.org/snonux/polyglot/internal"
	"codeberg.org/snonux/polyglot/internal/pipeline"
)

const (
	msgNoFilePart     = "No file part"
	msgNoSelectedFile = "No selected file"
	msgInternal       = "Internal Server Error"
	msgTooLarge       = "File too large"
)

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", nil)
}

func (s *Server) page(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, name, gin.H{"Language": s.config.DefaultLanguage})
	}
}

type flowFunc func(c *gin.Context, src, jobDir, lang string) (string, error)

func (s *Server) translatePDF(c *gin.Context) {
	s.runUpload(c, pipeline.TranslatedPDFName, func(c *gin.Context, src, jobDir, lang string) (string, error) {
		return s.pipeline.TranslatePDF(c.Request.Context(), src, jobDir, lang)
	})
}

func (s *Server) translateVideo(c *gin.Context) {
	s.runUpload(c, pipeline.TranslatedVideoName, func(c *gin.Context, src, jobDir, lang string) (string, error) {
		return s.pipeline.DubVideo(c.Request.Context(), src, jobDir, lang)
	})
}

// runUpload saves the uploaded file into a new job directory, runs flow on
// it and sends the result as an attachment named attachment
func (s *Server) runUpload(c *gin.Context, attachment string, flow flowFunc) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(s.config.MaxUploadMB)<<20)

	header, status, msg := s.uploadedFile(c)
	if header == nil {
		c.String(status, msg)
		return
	}
	name := safeBase(header.Filename)
	if name == "" {
		c.String(http.StatusBadRequest, msgNoSelectedFile)
		return
	}

	id, jobDir, err := pipeline.NewJobDir(s.config.UploadDir)
	if err != nil {
		s.log.Error("failed to create job directory", "error", err)
		c.String(http.StatusInternalServerError, msgInternal)
		return
	}
	log := s.log.With("job", id)

	session := c.PostForm("session")
	if session == "" {
		session = c.Query("session")
	}
	if session != "" {
		release := s.hub.Bind(id, session)
		defer release()
	}

	src := filepath.Join(jobDir, name)
	if err := c.SaveUploadedFile(header, src); err != nil {
		log.Error("failed to save upload", "file", name, "error", err)
		c.String(http.StatusInternalServerError, msgInternal)
		return
	}
	log.Info("upload saved", "file", name, "size", header.Size)

	lang := strings.TrimSpace(c.PostForm("lang"))
	if lang == "" {
		lang = s.config.DefaultLanguage
	}

	out, err := flow(c, src, jobDir, lang)
	if err != nil {
		var terr *pipeline.TranscriptionError
		if errors.As(err, &terr) {
			log.Warn("transcription failed", "error", err)
			c.String(http.StatusInternalServerError, terr.Message())
			return
		}
		log.Error("request failed", "error", err)
		c.String(http.StatusInternalServerError, msgInternal)
		return
	}
	c.FileAttachment(out, attachment)
}

// uploadedFile returns the "file" part, or the status and body to answer
// with when there is none
func (s *Server) uploadedFile(c *gin.Context) (*multipart.FileHeader, int, string) {
	header, err := c.FormFile("file")
	if err == nil {
		if header.Filename == "" {
			return nil, http.StatusBadRequest, msgNoSelectedFile
		}
		return header, 0, ""
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return nil, http.StatusRequestEntityTooLarge, msgTooLarge
	}
	// Parts without a file name are parsed as plain values; a browser
	// sends an empty file name when nothing was selected.
	if form := c.Request.MultipartForm; form != nil {
		if _, ok := form.Value["file"]; ok {
			return nil, http.StatusBadRequest, msgNoSelectedFile
		}
	}
	return nil, http.StatusBadRequest, msgNoFilePart
}

// safeBase reduces an uploaded file name to a plain, sanitized base name
func safeBase(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := strings.TrimSpace(filepath.Base(name))
	switch base {
	case "", ".", "..", "/":
		return ""
	}
	return internal.SanitizeFilename(base)
}

func (s *Server) listJobs(c *gin.Context) {
	if s.jobs == nil {
		c.JSON(http.StatusOK, []struct{}{})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	jobs, err := s.jobs.List(c.Request.Context(), limit)
	if err != nil {
		s.log.Error("failed to list jobs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
		return
	}
	c.JSON(http.StatusOK, jobs)
}
