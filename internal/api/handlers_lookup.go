package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/iparuby/internal/annotate"
	"github.com/dgallion1/iparuby/internal/dictionary"
	"github.com/dgallion1/iparuby/internal/lookup"
)

// handleLookup resolves one phrase through the cache and the dictionary,
// the same path the engine takes for a queued phrase.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	phrase := annotate.Normalize(chi.URLParam(r, "phrase"))
	if phrase == "" {
		jsonError(w, "phrase is required", http.StatusBadRequest)
		return
	}

	ipa, cached, err := lookup.Resolve(r.Context(), s.cache, s.fetcher, phrase)
	if err != nil {
		code := http.StatusBadGateway
		var se *dictionary.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests {
			code = http.StatusTooManyRequests
		}
		jsonError(w, "lookup failed: "+err.Error(), code)
		return
	}

	resp := map[string]any{
		"phrase": phrase,
		"ipa":    ipa,
		"cached": cached,
	}
	if ipa == "" {
		if base, ok := annotate.Lemma(phrase); ok {
			resp["lemma"] = base
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleCacheDelete(w http.ResponseWriter, r *http.Request) {
	phrase := annotate.Normalize(chi.URLParam(r, "phrase"))
	if phrase == "" {
		jsonError(w, "phrase is required", http.StatusBadRequest)
		return
	}
	if err := s.cache.Delete(r.Context(), phrase); err != nil {
		jsonError(w, "failed to delete: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"phrase": phrase, "deleted": true})
}
