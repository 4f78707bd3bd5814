package kit

import "net/http"

// Tag returns HTTP middleware that stamps the transport name and a request
// id into the request context, where endpoints and audit sinks pick them
// up. An incoming X-Request-ID header wins over a generated id.
func Tag(transport string, newID func() string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = newID()
			}
			ctx := WithRequestID(WithTransport(r.Context(), transport), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
