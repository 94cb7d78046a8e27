// Package invite encodes where a profile's messages live so another
// participant can join the same group, and renders it as a QR code.
package invite

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/matheus3301/huddle/internal/config"
	qrcode "github.com/skip2/go-qrcode"
)

// Scheme prefixes every invite link.
const Scheme = "huddle"

// ErrLocalBackend is returned for the hub backend, whose database is only
// reachable through the local daemon.
var ErrLocalBackend = errors.New("hub profiles cannot be shared; use redis or rtdb")

// Link builds an invite for st. Credentials are never included.
func Link(st config.Store) (string, error) {
	var addr string
	switch st.Backend {
	case config.BackendRedis:
		addr = st.RedisURL
	case config.BackendRTDB:
		addr = st.RTDBURL
	case config.BackendHub:
		return "", ErrLocalBackend
	default:
		return "", fmt.Errorf("unknown backend %q", st.Backend)
	}

	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("parse %s url: %w", st.Backend, err)
	}
	u.User = nil
	q := u.Query()
	q.Del("auth")
	u.RawQuery = q.Encode()

	v := url.Values{}
	v.Set("url", u.String())
	return (&url.URL{Scheme: Scheme, Host: st.Backend, RawQuery: v.Encode()}).String(), nil
}

// Parse reads an invite back into store settings.
func Parse(link string) (config.Store, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return config.Store{}, fmt.Errorf("parse invite: %w", err)
	}
	if u.Scheme != Scheme {
		return config.Store{}, fmt.Errorf("not a %s invite: %q", Scheme, link)
	}
	addr := u.Query().Get("url")
	if addr == "" {
		return config.Store{}, errors.New("invite has no url")
	}
	switch u.Host {
	case config.BackendRedis:
		return config.Store{Backend: config.BackendRedis, RedisURL: addr}, nil
	case config.BackendRTDB:
		return config.Store{Backend: config.BackendRTDB, RTDBURL: addr}, nil
	default:
		return config.Store{}, fmt.Errorf("unsupported backend %q", u.Host)
	}
}

// QR renders content as text using Unicode half-block characters, two
// modules per line.
func QR(content string) (string, error) {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "", fmt.Errorf("generate qr: %w", err)
	}
	bitmap := qr.Bitmap()
	rows := len(bitmap)

	var sb strings.Builder
	for y := 0; y < rows; y += 2 {
		sb.WriteString("  ")
		for x := range bitmap[y] {
			top := bitmap[y][x]
			bot := y+1 < rows && bitmap[y+1][x]
			switch {
			case top && bot:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bot:
				sb.WriteRune('▄')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String(), nil
}
