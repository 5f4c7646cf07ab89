package api

import (
	"log"
	"net/http"
)

// respondSafeError logs the full internal error server-side and sends a
// generic message to the client. Repository and launcher errors carry DSNs,
// table names and temp file paths; none of that belongs in a response body.
func respondSafeError(w http.ResponseWriter, code int, internalErr error, publicMsg string) {
	if internalErr != nil {
		log.Printf("ERROR [%d]: %s: %v", code, publicMsg, internalErr)
	}
	respondError(w, code, publicMsg)
}
