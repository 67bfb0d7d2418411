package web_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/iridium/blockchain/foundation/web"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_App(t *testing.T) {
	var order []string
	mw := func(name string) web.Middleware {
		return func(handler web.Handler) web.Handler {
			return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				order = append(order, name)
				return handler(ctx, w, r)
			}
		}
	}

	shutdown := make(chan os.Signal, 1)
	app := web.NewApp(shutdown, mw("app"))

	app.Handle(http.MethodGet, "v1", "/echo/:name", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if web.GetTraceID(ctx) == "" {
			return errors.New("missing trace id")
		}
		return web.Respond(ctx, w, map[string]string{"name": web.Param(r, "name")}, http.StatusOK)
	}, mw("route"))

	app.Handle(http.MethodGet, "v1", "/broken", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.NewShutdownError("integrity issue")
	})

	t.Log("Given the need to route requests through middleware.")
	{
		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/echo/bill", nil))

		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"name":"bill"`) {
			t.Fatalf("\t%s\tShould get back the route parameter: %d %s", failed, w.Code, w.Body.String())
		}
		t.Logf("\t%s\tShould get back the route parameter.", success)

		if len(order) != 2 || order[0] != "app" || order[1] != "route" {
			t.Fatalf("\t%s\tShould run app middleware before route middleware: %v", failed, order)
		}
		t.Logf("\t%s\tShould run app middleware before route middleware.", success)

		app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/broken", nil))

		select {
		case <-shutdown:
			t.Logf("\t%s\tShould signal shutdown on an integrity error.", success)
		default:
			t.Fatalf("\t%s\tShould signal shutdown on an integrity error.", failed)
		}
	}
}
