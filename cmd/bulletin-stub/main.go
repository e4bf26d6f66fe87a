// Command bulletin-stub serves the in-process stub backend over HTTP for
// local development of the bulletin client.
package main

import (
	"flag"
	"log"
	"net/http"

	"bulletin/internal/boardstub"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	server := boardstub.New()
	log.Printf("bulletin-stub listening on %s (demo login: %s / %s)", *addr, boardstub.DemoEmail, boardstub.DemoPassword)
	if err := http.ListenAndServe(*addr, server); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
