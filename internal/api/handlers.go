package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/larsks/inputbridge/internal/command"
	"github.com/larsks/inputbridge/internal/device"
	"github.com/larsks/inputbridge/internal/effects"
	"github.com/larsks/inputbridge/internal/input"
	"github.com/larsks/inputbridge/internal/mapping"
)

type commandInfo struct {
	command.Binding
	Keys []string `json:"keys"`
}

type dispatchResult struct {
	Tag    string `json:"tag,omitempty"`
	Mapped bool   `json:"mapped"`
}

type effectRequest struct {
	Path string `json:"path"`
}

type effectInfo struct {
	Path       string  `json:"path"`
	SampleRate int     `json:"sampleRate"`
	Samples    int     `json:"samples"`
	Seconds    float64 `json:"seconds"`
}

type effectList struct {
	Files  []effects.File `json:"files"`
	Loaded []string       `json:"loaded"`
}

type rumbleRequest struct {
	Iterations uint32 `json:"iterations"`
	Repeat     bool   `json:"repeat,omitempty"`
}

// decodeBody decodes an optional JSON body into v.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// persist saves the mapping table when a mapping file is configured.
func (s *Server) persist() error {
	if s.mappingFile == "" {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if err := s.engine.Store().Save(s.mappingFile); err != nil {
		log.Printf("failed to save mappings: %v", err)
		return fmt.Errorf("%w: %v", ErrSaveMappings, err)
	}
	return nil
}

func (s *Server) listMappingsHandler(w http.ResponseWriter, r *http.Request) {
	records := s.engine.Store().Records()
	if records == nil {
		records = []mapping.Record{}
	}
	s.sendSuccess(w, records)
}

func (s *Server) getMappingHandler(w http.ResponseWriter, r *http.Request) {
	key := mappingKeyFrom(r)
	b, ok := s.engine.Store().Lookup(key)
	if !ok {
		s.sendError(w, fmt.Sprintf("no mapping for %s", key), http.StatusNotFound)
		return
	}
	s.sendSuccess(w, mapping.RecordFromEntry(mapping.Entry{Key: key, Binding: b}))
}

func (s *Server) putMappingHandler(w http.ResponseWriter, r *http.Request) {
	key := mappingKeyFrom(r)

	var rec mapping.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		s.sendError(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	rec.DeviceCode, rec.ElementCode, _ = input.SplitKey(key)
	if err := rec.Validate(); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.engine.SetMapping(key, rec.Binding(s.engine.Store().DefaultFor(rec.Tag)))
	if err := s.persist(); err != nil {
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.sendSuccess(w, rec)
}

func (s *Server) deleteMappingHandler(w http.ResponseWriter, r *http.Request) {
	key := mappingKeyFrom(r)
	s.engine.RemoveMapping(key)
	if err := s.persist(); err != nil {
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.sendResponse(w, APIResponse{Status: "ok", Message: fmt.Sprintf("removed %s", key)}, http.StatusOK)
}

func (s *Server) listCommandsHandler(w http.ResponseWriter, r *http.Request) {
	store := s.engine.Store()
	catalog := store.Catalog()
	commands := make([]commandInfo, len(catalog))
	for i, b := range catalog {
		keys := store.KeysForTag(b.Tag)
		if keys == nil {
			keys = []string{}
		}
		commands[i] = commandInfo{Binding: b, Keys: keys}
	}
	s.sendSuccess(w, commands)
}

func (s *Server) deleteTagMappingsHandler(w http.ResponseWriter, r *http.Request) {
	tag, err := url.PathUnescape(chi.URLParam(r, "tag"))
	if err != nil {
		s.sendError(w, fmt.Sprintf("invalid tag: %v", err), http.StatusBadRequest)
		return
	}
	removed := s.engine.Store().KeysForTag(tag)
	s.engine.RemoveAllMappingsForTag(tag)
	if err := s.persist(); err != nil {
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if removed == nil {
		removed = []string{}
	}
	s.sendSuccess(w, removed)
}

func (s *Server) dispatchHandler(w http.ResponseWriter, r *http.Request) {
	var ev input.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		s.sendError(w, fmt.Sprintf("Invalid event: %v", err), http.StatusBadRequest)
		return
	}
	if ev.DeviceCode == "" || ev.ElementCode == "" {
		s.sendError(w, "deviceCode and elementCode are required", http.StatusBadRequest)
		return
	}

	tag, mapped := s.engine.TagFor([]input.Event{ev})
	s.engine.DispatchSingle(ev)
	s.sendSuccess(w, dispatchResult{Tag: tag, Mapped: mapped})
}

func (s *Server) listEffectsHandler(w http.ResponseWriter, r *http.Request) {
	list := effectList{Files: []effects.File{}, Loaded: []string{}}
	if lib := s.engine.Library(); lib != nil {
		if loaded := lib.Paths(); loaded != nil {
			list.Loaded = loaded
		}
	}
	if s.effectsDir != "" {
		files, err := effects.Scan(s.effectsDir)
		if err != nil {
			s.sendError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if files != nil {
			list.Files = files
		}
	}
	s.sendSuccess(w, list)
}

func (s *Server) loadEffectHandler(w http.ResponseWriter, r *http.Request) {
	var req effectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		s.sendError(w, "path is required", http.StatusBadRequest)
		return
	}

	path := req.Path
	if !filepath.IsAbs(path) {
		if s.effectsDir == "" {
			s.sendError(w, ErrNoEffectsDir.Error(), http.StatusBadRequest)
			return
		}
		path = filepath.Join(s.effectsDir, path)
	}

	g, err := s.engine.LoadEffectFile(path)
	if err != nil {
		code := http.StatusUnprocessableEntity
		if errors.Is(err, effects.ErrUnsupportedFormat) {
			code = http.StatusBadRequest
		}
		s.sendError(w, err.Error(), code)
		return
	}
	s.sendSuccess(w, effectInfo{
		Path:       g.Path(),
		SampleRate: g.SampleRate(),
		Samples:    g.Len(),
		Seconds:    g.Duration().Seconds(),
	})
}

func (s *Server) refreshEffectsHandler(w http.ResponseWriter, r *http.Request) {
	s.engine.RefreshEffects()
	loaded := []string{}
	if lib := s.engine.Library(); lib != nil && lib.Paths() != nil {
		loaded = lib.Paths()
	}
	s.sendSuccess(w, loaded)
}

func (s *Server) listDevicesHandler(w http.ResponseWriter, r *http.Request) {
	sessions := []device.Info{}
	if s.devices != nil {
		if infos := s.devices.Sessions(); infos != nil {
			sessions = infos
		}
	}
	s.sendSuccess(w, sessions)
}

func (s *Server) startRumbleHandler(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	var req rumbleRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if req.Iterations == 0 {
		req.Iterations = 1
	}
	var flags uint32
	if req.Repeat {
		flags |= device.RepeatUntilStopped
	}

	if !session.Capabilities().ForceFeedback {
		s.sendError(w, "device has no force feedback", http.StatusConflict)
		return
	}
	if err := session.StartForceFeedback(req.Iterations, flags); err != nil {
		s.sendError(w, err.Error(), http.StatusConflict)
		return
	}
	s.sendSuccess(w, req)
}

func (s *Server) stopRumbleHandler(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	if err := session.StopForceFeedback(); err != nil {
		s.sendError(w, err.Error(), http.StatusConflict)
		return
	}
	s.sendResponse(w, APIResponse{Status: "ok"}, http.StatusOK)
}

func (s *Server) controllerStateHandler(w http.ResponseWriter, r *http.Request) {
	if s.state == nil {
		s.sendError(w, "no controller", http.StatusNotFound)
		return
	}
	s.sendSuccess(w, s.state.State())
}
