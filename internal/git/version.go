package git

import (
	"context"
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// MinVersion is the oldest git the tree machinery is known to work with;
// mktree --batch and ls-tree -r -t behave as required from here on.
const MinVersion = "2.7.4"

var versionRe = regexp.MustCompile(`git version (\d+\.\d+(?:\.\d+)?)`)

// Version returns the version of the driven binary, parsed from
// "git version X.Y.Z" output. Memoized for the life of the client.
func (c *Client) Version(ctx context.Context) (string, error) {
	c.versionOnce.Do(func() {
		out, err := c.Exec(ctx, "version")
		if err != nil {
			c.versionErr = err
			return
		}
		m := versionRe.FindStringSubmatch(out)
		if m == nil {
			c.versionErr = fmt.Errorf("unrecognized git version output: %q", out)
			return
		}
		c.version = m[1]
	})
	return c.version, c.versionErr
}

// SatisfiesVersion reports whether the binary's version satisfies a semver
// range such as ">=2.7.4" or ">=2.25 <3".
func (c *Client) SatisfiesVersion(ctx context.Context, constraint string) (bool, error) {
	rng, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}
	raw, err := c.Version(ctx)
	if err != nil {
		return false, err
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return false, fmt.Errorf("parsing git version %q: %w", raw, err)
	}
	return rng.Check(v), nil
}

// RequireVersion fails when the binary's version does not satisfy the range.
func (c *Client) RequireVersion(ctx context.Context, constraint string) error {
	ok, err := c.SatisfiesVersion(ctx, constraint)
	if err != nil {
		return err
	}
	if !ok {
		v, _ := c.Version(ctx)
		return fmt.Errorf("git version %s does not satisfy %q", v, constraint)
	}
	return nil
}
