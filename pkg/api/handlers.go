package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/collection"
	"github.com/platinummonkey/depcollect/pkg/httputil"
	"github.com/platinummonkey/depcollect/pkg/observability"
	"github.com/platinummonkey/depcollect/pkg/repository"
)

// collect handles POST /v1/collect
func (s *Server) collect(w http.ResponseWriter, r *http.Request) {
	format := httputil.ParseQueryString(r, "format", FormatTree)
	if !ValidFormat(format) {
		httputil.WriteBadRequest(w, r, fmt.Sprintf("unknown format %q", format))
		return
	}

	var body CollectRequest
	if !httputil.ParseJSONOrError(w, r, &body) {
		return
	}

	req, err := body.ToRequest(s.repositories)
	if err != nil {
		httputil.WriteBadRequest(w, r, err.Error())
		return
	}
	session, err := body.Session.Overlay(s.defaults).Session()
	if err != nil {
		httputil.WriteBadRequest(w, r, err.Error())
		return
	}

	start := time.Now()
	res, err := s.collector.Collect(r.Context(), session, req)
	took := time.Since(start)

	var partial *collection.CollectionError
	if err != nil && !errors.As(err, &partial) {
		httputil.WriteInternalError(w, r, err)
		return
	}

	resp, err := NewCollectResponse(res, format, took)
	if err != nil {
		httputil.WriteInternalError(w, r, err)
		return
	}
	s.otelMetrics.RecordCollection(r.Context(), "api", took, resp.Stats.Nodes, resp.Stats.Errors)

	observability.FromContext(r.Context()).WithFields(logrus.Fields{
		"nodes":  resp.Stats.Nodes,
		"cycles": resp.Stats.Cycles,
		"errors": resp.Stats.Errors,
	}).Info("Collected dependencies")

	_ = httputil.WriteSuccess(w, resp)
}

// getDescriptor handles GET /v1/descriptors/{coords}
func (s *Server) getDescriptor(w http.ResponseWriter, r *http.Request) {
	coords, ok := httputil.ParsePathStringOrError(w, r, "coords")
	if !ok {
		return
	}
	a, err := artifact.Parse(coords)
	if err != nil {
		httputil.WriteBadRequest(w, r, err.Error())
		return
	}

	d, err := s.descriptors.ReadDescriptor(r.Context(), repository.DescriptorRequest{
		Artifact:       a,
		Repositories:   s.repositories,
		RequestContext: httputil.ParseQueryString(r, "context", ""),
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		httputil.WriteNotFound(w, r, err.Error())
		return
	case err != nil:
		httputil.WriteInternalError(w, r, err)
		return
	}

	_ = httputil.WriteSuccess(w, repository.NewDescriptorDocument(d))
}

// putDescriptor handles PUT /v1/descriptors/{coords}
func (s *Server) putDescriptor(w http.ResponseWriter, r *http.Request) {
	coords, ok := httputil.ParsePathStringOrError(w, r, "coords")
	if !ok {
		return
	}
	a, err := artifact.Parse(coords)
	if err != nil {
		httputil.WriteBadRequest(w, r, err.Error())
		return
	}

	var doc repository.DescriptorDocument
	if !httputil.ParseJSONOrError(w, r, &doc) {
		return
	}
	d, err := doc.ToDescriptor(a)
	if err != nil {
		httputil.WriteBadRequest(w, r, err.Error())
		return
	}

	err = s.publisher.Publish(r.Context(), d)
	s.otelMetrics.RecordDescriptorWrite(r.Context(), "api", err)
	switch {
	case errors.Is(err, repository.ErrReadOnly):
		httputil.WriteError(w, r, http.StatusMethodNotAllowed, err)
		return
	case err != nil:
		httputil.WriteInternalError(w, r, err)
		return
	}

	observability.FromContext(r.Context()).WithField("artifact", a.String()).Info("Published descriptor")
	_ = httputil.WriteJSON(w, http.StatusCreated, repository.NewDescriptorDocument(d))
}
