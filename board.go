/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	_ "embed"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/sketchbox/relay"
)

const qrSize = 320

//go:embed board/index.html
var boardHTML []byte

func serveBoardWS(cfg *Config, rm *relay.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		boardID := ps.ByName("boardid")

		err := rm.ServeWS(w, r, boardID, realIP(r))
		if err != nil {
			logf(cfg, "BOARD: Connection from %s to %q failed: %v", realIP(r), boardID, err)
		}
	}
}

// boardURL rebuilds the public address of the board page behind r, which
// ends in /qr.
func boardURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/qr")
}

func serveQR(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		if !relay.ValidBoardID(ps.ByName("boardid")) {
			http.Error(w, relay.ErrInvalidBoardID.Error(), http.StatusBadRequest)

			return
		}

		png, err := qrcode.Encode(boardURL(r), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)

		written, err := w.Write(png)
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: QR code for %s (%s) to %s in %s",
			ps.ByName("boardid"),
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func serveBoardPage(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !relay.ValidBoardID(ps.ByName("boardid")) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(newPage("Not Found", "No such board.")))

			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, err := w.Write(boardHTML)
		if err != nil {
			errs <- err
		}
	}
}

func redirectNewBoard(cfg *Config, path string, rm *relay.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		boardID := rm.NewBoardID()

		logf(cfg, "BOARD: Created board %s/%s", path, boardID)

		http.Redirect(w, r, path+"/"+boardID, http.StatusTemporaryRedirect)
	}
}

// registerBoards sets up routes so that:
//   - $path             → redirects to a new random board
//   - $path/:boardid    → HTML client
//   - $path/:boardid/ws → WebSocket relay for that board
//   - $path/:boardid/qr → PNG QR code for the board URL
func registerBoards(cfg *Config, path string, mux *httprouter.Router, errs chan<- error) *relay.Manager {
	rm := relay.NewManager(relay.Options{
		BoardTimeout: cfg.boardTimeout,
		SendBuffer:   cfg.sendBuffer,
		MaxMessage:   cfg.maxMessage,
		Logf:         logger(cfg),
	})

	path = cfg.prefix + path

	mux.GET(path, redirectNewBoard(cfg, path, rm))
	mux.GET(path+"/:boardid", serveBoardPage(cfg, errs))
	mux.GET(path+"/:boardid/ws", serveBoardWS(cfg, rm))
	mux.GET(path+"/:boardid/qr", serveQR(cfg, errs))

	return rm
}
