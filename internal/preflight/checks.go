package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"floatsync/internal/config"
	"floatsync/internal/predicate"
)

const checkTimeout = 5 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckPredicates compiles every channel predicate.
func CheckPredicates(subs []config.Subscription) Result {
	const name = "Channel predicates"
	if err := predicate.NewEngine().Validate(subs); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	channels := 0
	for _, sub := range subs {
		channels += len(sub.Channels)
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d subscriptions, %d channels", len(subs), channels)}
}

// CheckFloatplane verifies the session cookie against the current user endpoint.
func CheckFloatplane(ctx context.Context, baseURL, sailsSID, userAgent string) Result {
	const name = "Floatplane"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing base url"}
	}
	if strings.TrimSpace(sailsSID) == "" {
		return Result{Name: name, Detail: "missing sails_sid (set floatplane.sails_sid or " + config.EnvSailsSID + ")"}
	}
	return checkEndpoint(ctx, name, base+"/api/v3/user/self", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "sails.sid", Value: strings.TrimSpace(sailsSID)})
		if userAgent != "" {
			req.Header.Set("User-Agent", userAgent)
		}
	}, "invalid or expired sails_sid")
}

// CheckJellyfin verifies Jellyfin connectivity and authentication.
func CheckJellyfin(ctx context.Context, baseURL, apiKey string) Result {
	const name = "Jellyfin"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "missing api key"}
	}
	return checkEndpoint(ctx, name, base+"/Users", func(req *http.Request) {
		req.Header.Set("X-Emby-Token", strings.TrimSpace(apiKey))
	}, "invalid api key")
}

// CheckPlex verifies Plex connectivity and the token.
func CheckPlex(ctx context.Context, baseURL, token string) Result {
	const name = "Plex"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if strings.TrimSpace(token) == "" {
		return Result{Name: name, Detail: "missing token"}
	}
	return checkEndpoint(ctx, name, base+"/library/sections", func(req *http.Request) {
		req.Header.Set("X-Plex-Token", strings.TrimSpace(token))
		req.Header.Set("Accept", "application/xml")
	}, "invalid token")
}

func checkEndpoint(ctx context.Context, name, target string, decorate func(*http.Request), authDetail string) Result {
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, target, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("check failed (%v)", err)}
	}
	decorate(req)

	client := &http.Client{Timeout: checkTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: fmt.Sprintf("auth failed (%s)", authDetail)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("check failed (%d)", resp.StatusCode)}
	}
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (service unreachable)"
	}
	return fmt.Sprintf("check failed (%v)", err)
}
