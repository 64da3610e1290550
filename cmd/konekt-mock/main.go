// Command konekt-mock serves an in-memory TeamKonekt API seeded with a
// demo company, for trying the client without a real backend.
package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	flag "github.com/spf13/pflag"

	"github.com/teamkonekt/konekt/internal/mockapi"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8089", "listen address")
	pageSize := flag.Int("page-size", mockapi.DefaultPageSize, "items per list page")
	flag.Parse()

	srv := mockapi.NewDemo(mockapi.WithPageSize(*pageSize))

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	srv.RegisterRoutes(r)

	hs := &http.Server{
		Addr:              *addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("mock API listening on http://%s", *addr)
	log.Printf("manager: %s / %s", mockapi.DemoManagerEmail, mockapi.DemoPassword)
	log.Printf("employee: %s / %s", mockapi.DemoEmployeeEmail, mockapi.DemoPassword)
	if err := hs.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("serving: %v", err)
	}
}
