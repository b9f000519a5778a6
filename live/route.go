package live

import (
	"fmt"
	"net/http"
	"reflect"
)

// joinHandler is the http.ResponseWriter handed to Config.Mux while a
// socket joins. Route handlers report their View through SetView.
type joinHandler struct {
	lv   View
	code int
}

// Header returns an empty http.Header.
// Modifications to the returned header are ignored.
func (*joinHandler) Header() http.Header {
	return make(http.Header)
}

// Write always returns an error.
func (*joinHandler) Write(b []byte) (int, error) {
	return 0, fmt.Errorf("live: join handler rejects all writes: %s", b)
}

// WriteHeader notes a status code.
func (x *joinHandler) WriteHeader(statusCode int) {
	x.code = statusCode
}

// SetView selects v as the View for the request being routed.
// It does nothing if rw does not belong to a joining socket.
func SetView(rw http.ResponseWriter, v View) {
	j, ok := rw.(*joinHandler)
	if !ok {
		return
	}
	j.lv = v
}

// MakeView returns a new zero T, allocated if T is a pointer type.
// It is a convenience for route handlers that configure a View before
// passing it to SetView.
func MakeView[T View]() T {
	var zero T
	typ := reflect.TypeOf(&zero).Elem()
	if typ.Kind() != reflect.Pointer {
		return zero
	}
	return reflect.New(typ.Elem()).Interface().(T)
}

// viewForRequest routes r through the configured Mux.
func (c *Config) viewForRequest(r *http.Request) (View, int) {
	rw := new(joinHandler)
	c.Mux.ServeHTTP(rw, r)
	return rw.lv, rw.code
}
