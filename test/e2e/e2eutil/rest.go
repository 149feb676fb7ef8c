// Copyright 2022 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package e2eutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"k8s.io/client-go/rest"
	"k8s.io/klog/v2"
	utilexec "k8s.io/utils/exec"
)

const unknown = "unknown"

// WithUserAgent sets a User-Agent naming the e2e suite on cfg.
func WithUserAgent(cfg *rest.Config, suffix string) *rest.Config {
	cfg.UserAgent = UserAgent(suffix)
	return cfg
}

// UserAgent returns a User-Agent for the API requests of the suite,
// built from the binary name, the git checkout and the platform.
func UserAgent(suffix string) string {
	return fmt.Sprintf("%s/%s (%s/%s) virt-harness/%s/%s",
		adjustCommand(os.Args[0]),
		adjustVersion(git("describe")),
		runtime.GOOS,
		runtime.GOARCH,
		adjustCommit(git("rev-parse", "HEAD")),
		suffix)
}

// git runs a git subcommand in the working directory, which ginkgo sets
// to the suite directory. Failures yield an empty string so suites run
// from a source tarball too.
func git(args ...string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	out, err := utilexec.New().CommandContext(ctx, "git", args...).Output()
	if err != nil {
		klog.V(4).Infof("git %s: %v", strings.Join(args, " "), err)
		return ""
	}
	return strings.TrimSpace(string(out))
}

func adjustCommand(p string) string {
	if len(p) == 0 {
		return unknown
	}
	return filepath.Base(p)
}

// adjustVersion strips pre-release suffixes from major.minor.patch-pre.
func adjustVersion(v string) string {
	if len(v) == 0 {
		return unknown
	}
	return strings.SplitN(v, "-", 2)[0]
}

func adjustCommit(c string) string {
	if len(c) == 0 {
		return unknown
	}
	if len(c) > 7 {
		return c[:7]
	}
	return c
}
