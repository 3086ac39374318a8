package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Controller registers a related group of routes on the router.
type Controller interface {
	Register(r *mux.Router)
}

type HTTPServer struct {
	controllers []Controller
	middlewares []mux.MiddlewareFunc
	srv         *http.Server
}

func NewHTTPServer(controllers []Controller, middlewares ...mux.MiddlewareFunc) *HTTPServer {
	return &HTTPServer{
		controllers: controllers,
		middlewares: middlewares,
	}
}

func (s *HTTPServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.middlewares...)
	for _, controller := range s.controllers {
		controller.Register(r)
	}
	return r
}

func (s *HTTPServer) Start(address string) error {
	s.srv = &http.Server{
		Addr:              address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.srv.ListenAndServe()
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
