package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quillwiki/quill/internal/archive"
	"github.com/quillwiki/quill/internal/log"
	"github.com/quillwiki/quill/internal/revision"
	"github.com/quillwiki/quill/internal/talk"
	"github.com/quillwiki/quill/internal/title"
	"github.com/quillwiki/quill/internal/wiki"
)

// titleParam decodes the {title} route segment. Titles arrive
// path-escaped since they routinely contain spaces and colons.
func titleParam(r *http.Request) title.Title {
	raw := chi.URLParam(r, "title")
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	return title.Parse(raw)
}

func versionParam(r *http.Request) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil || v < 1 {
		return 0, fmt.Errorf("bad version %q", chi.URLParam(r, "version"))
	}
	return v, nil
}

func (s *Server) getPage(w http.ResponseWriter, r *http.Request) {
	t := titleParam(r)
	p, err := s.engine.Page(r.Context(), t)
	if err != nil {
		respondErr(w, http.StatusInternalServerError, err)
		return
	}
	if p == nil {
		respondErr(w, http.StatusNotFound, fmt.Errorf("no page %s", t))
		return
	}
	respond(w, http.StatusOK, p)
}

// editRequest is the PUT body for a page edit.
type editRequest struct {
	Markdown   string  `json:"markdown"`
	Editor     string  `json:"editor"`
	Comment    string  `json:"comment"`
	RedirectTo string  `json:"redirectTo"`
	Owner      *string `json:"owner"`

	AllowedEditors *[]string `json:"allowedEditors"`
	AllowedViewers *[]string `json:"allowedViewers"`
	EditorGroups   *[]string `json:"editorGroups"`
	ViewerGroups   *[]string `json:"viewerGroups"`

	FilePath string `json:"filePath"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
}

func (s *Server) putPage(w http.ResponseWriter, r *http.Request) {
	t := titleParam(r)
	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, http.StatusBadRequest, fmt.Errorf("decode edit: %w", err))
		return
	}
	params := wiki.UpdateParams{
		Title:          t,
		Markdown:       req.Markdown,
		Editor:         req.Editor,
		Comment:        req.Comment,
		Owner:          req.Owner,
		AllowedEditors: req.AllowedEditors,
		AllowedViewers: req.AllowedViewers,
		EditorGroups:   req.EditorGroups,
		ViewerGroups:   req.ViewerGroups,
		FilePath:       req.FilePath,
		FileSize:       req.FileSize,
		FileType:       req.FileType,
	}
	if req.RedirectTo != "" {
		to := title.Parse(req.RedirectTo)
		params.RedirectTo = &to
	}

	p, err := s.engine.Update(r.Context(), params)
	log.Event("web:page", "edit").Author(req.Editor).Title(t.String()).Write(err)
	if err != nil {
		respondErr(w, http.StatusUnprocessableEntity, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (s *Server) deletePage(w http.ResponseWriter, r *http.Request) {
	t := titleParam(r)
	editor := r.URL.Query().Get("editor")
	comment := r.URL.Query().Get("comment")

	p, err := s.engine.Delete(r.Context(), t, editor, comment)
	log.Event("web:page", "delete").Author(editor).Title(t.String()).Write(err)
	if err != nil {
		respondErr(w, http.StatusInternalServerError, err)
		return
	}
	respond(w, http.StatusOK, p)
}

type renameRequest struct {
	To      string `json:"to"`
	Editor  string `json:"editor"`
	Comment string `json:"comment"`
}

func (s *Server) renamePage(w http.ResponseWriter, r *http.Request) {
	from := titleParam(r)
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, http.StatusBadRequest, fmt.Errorf("decode rename: %w", err))
		return
	}
	to := title.Parse(req.To)

	err := s.engine.Rename(r.Context(), from, to, req.Editor, req.Comment)
	log.Event("web:page", "rename").
		Author(req.Editor).
		Title(from.String()).
		Resolved(to.String()).
		Write(err)
	if err != nil {
		respondErr(w, http.StatusUnprocessableEntity, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"renamed": to.String()})
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	t := titleParam(r)
	revs, err := s.engine.History(r.Context(), t)
	if err != nil {
		respondErr(w, http.StatusInternalServerError, err)
		return
	}
	if revs == nil {
		respondErr(w, http.StatusNotFound, fmt.Errorf("no history for %s", t))
		return
	}
	respond(w, http.StatusOK, revs)
}

func (s *Server) getTextAt(w http.ResponseWriter, r *http.Request) {
	t := titleParam(r)
	v, err := versionParam(r)
	if err != nil {
		respondErr(w, http.StatusBadRequest, err)
		return
	}
	text, err := s.engine.TextAt(r.Context(), t, v)
	if err != nil {
		respondErr(w, http.StatusNotFound, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"text": text})
}

func (s *Server) getDiff(w http.ResponseWriter, r *http.Request) {
	t := titleParam(r)
	v, err := versionParam(r)
	if err != nil {
		respondErr(w, http.StatusBadRequest, err)
		return
	}
	format := revision.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = revision.FormatGNU
	}
	diff, err := s.engine.DiffAt(r.Context(), t, v, format)
	if err != nil {
		respondErr(w, http.StatusNotFound, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"diff": diff})
}

func (s *Server) getMembers(w http.ResponseWriter, r *http.Request) {
	t := titleParam(r)
	members, err := s.engine.CategoryMembers(r.Context(), t)
	if err != nil {
		respondErr(w, http.StatusInternalServerError, err)
		return
	}
	respond(w, http.StatusOK, members)
}

func (s *Server) getTopic(w http.ResponseWriter, r *http.Request) {
	t := titleParam(r)
	topic, err := s.talk.Topic(r.Context(), t)
	if err != nil {
		respondErr(w, http.StatusInternalServerError, err)
		return
	}
	if topic == nil {
		respondErr(w, http.StatusNotFound, fmt.Errorf("no topic %s", t))
		return
	}
	respond(w, http.StatusOK, topic)
}

type postRequest struct {
	Sender   string `json:"sender"`
	SenderID string `json:"senderId"`
	ReplyTo  string `json:"replyTo"`
	Markdown string `json:"markdown"`
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	t := titleParam(r)
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, http.StatusBadRequest, fmt.Errorf("decode message: %w", err))
		return
	}

	msg, err := s.talk.Post(r.Context(), t, req.Sender, req.SenderID, req.ReplyTo, req.Markdown)
	log.Event("web:talk", "post").Author(req.Sender).Title(t.String()).Write(err)
	if err != nil {
		respondErr(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.hub.Broadcast(talk.Key(t), msg)
	respond(w, http.StatusCreated, msg)
}

// talkSocket upgrades to a websocket and streams new messages for the
// topic until the client disconnects. The read loop only serves to
// detect the close.
func (s *Server) talkSocket(w http.ResponseWriter, r *http.Request) {
	t := titleParam(r)
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	topicID := talk.Key(t)
	s.hub.Subscribe(topicID, conn)
	defer func() {
		s.hub.Unsubscribe(topicID, conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) getExport(w http.ResponseWriter, r *http.Request) {
	a, err := archive.Export(r.Context(), s.engine.Store(), s.engine.Options())
	log.Event("web:archive", "export").Write(err)
	if err != nil {
		respondErr(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = a.Write(w)
}

func (s *Server) postImport(w http.ResponseWriter, r *http.Request) {
	a, err := archive.Read(r.Body)
	if err != nil {
		respondErr(w, http.StatusBadRequest, err)
		return
	}
	editor := r.URL.Query().Get("editor")
	n, err := archive.Import(r.Context(), s.engine, a, editor)
	log.Event("web:archive", "import").Author(editor).Detail("pages", n).Write(err)
	if err != nil {
		respondErr(w, http.StatusUnprocessableEntity, err)
		return
	}
	respond(w, http.StatusOK, map[string]int{"imported": n})
}
