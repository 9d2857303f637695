package kvstore

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

type connInfo struct {
	addr     string
	username string
	password string
	selectDB int
	useTLS   bool
}

func parseStoreURL(raw string) (connInfo, error) {
	if strings.TrimSpace(raw) == "" {
		return connInfo{}, errors.New("kvstore url is empty")
	}

	if !strings.Contains(raw, "://") {
		return parseStoreAddr(raw)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return connInfo{}, fmt.Errorf("parse url: %w", err)
	}

	host := parsed.Hostname()
	if host == "" {
		return connInfo{}, errors.New("kvstore host missing")
	}

	port := parsed.Port()
	if port == "" {
		port = "6379"
	}

	selectDB := 0
	if strings.TrimSpace(parsed.Path) != "" && parsed.Path != "/" {
		path := strings.TrimPrefix(parsed.Path, "/")
		db, err := strconv.Atoi(path)
		if err != nil {
			return connInfo{}, fmt.Errorf("invalid kvstore db: %w", err)
		}
		if db < 0 {
			return connInfo{}, errors.New("invalid kvstore db")
		}
		selectDB = db
	}

	username := ""
	password := ""
	if parsed.User != nil {
		username = parsed.User.Username()
		pw, _ := parsed.User.Password()
		password = pw
	}

	useTLS := strings.EqualFold(parsed.Scheme, "rediss")

	return connInfo{
		addr:     net.JoinHostPort(host, port),
		username: username,
		password: password,
		selectDB: selectDB,
		useTLS:   useTLS,
	}, nil
}

func parseStoreAddr(addr string) (connInfo, error) {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		return connInfo{}, errors.New("kvstore address is empty")
	}

	host, port, err := net.SplitHostPort(trimmed)
	if err != nil {
		return connInfo{addr: net.JoinHostPort(trimmed, "6379")}, nil
	}
	if host == "" {
		return connInfo{}, errors.New("kvstore host missing")
	}
	return connInfo{addr: net.JoinHostPort(host, port)}, nil
}
