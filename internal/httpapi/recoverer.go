package httpapi

import (
	"log"
	"net/http"
	"runtime/debug"
)

// recoverJSON is the process-wide fallback for panics escaping a
// handler. The client gets a generic JSON body; the stack trace is
// logged server-side only.
func recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil || rec == http.ErrAbortHandler {
				if rec != nil {
					panic(rec)
				}
				return
			}
			if zlog != nil {
				zlog.Error().
					Interface("panic", rec).
					Str("path", r.URL.Path).
					Bytes("stack", debug.Stack()).
					Msg("handler panic")
			} else {
				log.Printf("handler panic on %s: %v\n%s", r.URL.Path, rec, debug.Stack())
			}
			writeServerError(w)
		}()
		next.ServeHTTP(w, r)
	})
}
