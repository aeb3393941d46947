package registry

import (
	"fmt"
	"strconv"
	"strings"
)

// version is a parsed semver-style version number.
type version struct {
	major, minor, patch int
	pre                 string
}

// parseVersion parses "MAJOR.MINOR.PATCH[-PRE]". Missing components
// default to zero.
func parseVersion(s string) (version, bool) {
	var v version
	if s == "" {
		return v, false
	}
	if i := strings.IndexByte(s, '-'); i >= 0 {
		v.pre = s[i+1:]
		s = s[:i]
	}
	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return version{}, false
	}
	nums := [3]int{}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return version{}, false
		}
		nums[i] = n
	}
	v.major, v.minor, v.patch = nums[0], nums[1], nums[2]
	return v, true
}

// compare orders versions; a pre-release sorts below the corresponding
// release.
func (v version) compare(o version) int {
	if v.major != o.major {
		return v.major - o.major
	}
	if v.minor != o.minor {
		return v.minor - o.minor
	}
	if v.patch != o.patch {
		return v.patch - o.patch
	}
	switch {
	case v.pre == o.pre:
		return 0
	case v.pre == "":
		return 1
	case o.pre == "":
		return -1
	}
	return strings.Compare(v.pre, o.pre)
}

// ResolveVersion resolves a version request against a crate's releases.
//
// An exact version string matches its release even when yanked (the user
// navigated to it directly). "", "*", and "latest" pick the highest
// non-yanked release. "MAJOR" and "MAJOR.MINOR" requests pick the highest
// non-yanked release with those leading components. Anything else, or a
// request with no match, returns ErrNotFound.
func (s *Store) ResolveVersion(crateID int64, req string) (*Release, error) {
	releases, err := s.ListReleases(crateID)
	if err != nil {
		return nil, err
	}

	req = strings.TrimSpace(req)

	// Exact match first.
	if req != "" && req != "*" && req != "latest" {
		for _, r := range releases {
			if r.Version == req {
				return r, nil
			}
		}
	}

	if req == "" || req == "*" || req == "latest" {
		if best := highestRelease(releases, nil); best != nil {
			return best, nil
		}
		return nil, fmt.Errorf("resolve version %d/%s: %w", crateID, req, ErrNotFound)
	}

	want, ok := parseVersion(req)
	if !ok || want.pre != "" {
		return nil, fmt.Errorf("resolve version %d/%s: %w", crateID, req, ErrNotFound)
	}
	depth := strings.Count(req, ".") + 1
	match := func(v version) bool {
		if v.major != want.major {
			return false
		}
		if depth >= 2 && v.minor != want.minor {
			return false
		}
		if depth >= 3 && v.patch != want.patch {
			return false
		}
		return true
	}
	if best := highestRelease(releases, match); best != nil {
		return best, nil
	}
	return nil, fmt.Errorf("resolve version %d/%s: %w", crateID, req, ErrNotFound)
}

// highestRelease returns the highest-versioned non-yanked release that
// satisfies match (nil matches everything). Unparsable version strings are
// skipped.
func highestRelease(releases []*Release, match func(version) bool) *Release {
	var best *Release
	var bestVersion version
	for _, r := range releases {
		if r.Yanked {
			continue
		}
		v, ok := parseVersion(r.Version)
		if !ok {
			continue
		}
		if match != nil && !match(v) {
			continue
		}
		if best == nil || v.compare(bestVersion) > 0 {
			best = r
			bestVersion = v
		}
	}
	return best
}
