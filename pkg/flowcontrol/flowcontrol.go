// Copyright 2022 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

// Package flowcontrol detects API Priority and Fairness on the API server,
// so that a session can turn client-side throttling off when the server
// already enforces it.
package flowcontrol

import (
	"context"
	"fmt"
	"io"
	"net/http"

	flowcontrolapi "k8s.io/api/flowcontrol/v1beta2"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/rest"
	"k8s.io/klog/v2"
)

const pingPath = "/livez/ping"

// IsEnabled returns true if the server has APF enabled. The check pings
// the server and looks for the flow schema header in the response.
func IsEnabled(ctx context.Context, config *rest.Config) (bool, error) {
	client, err := rest.HTTPClientFor(config)
	if err != nil {
		return false, fmt.Errorf("building http client: %w", err)
	}
	u, _, err := rest.DefaultServerURL(config.Host, config.APIPath, schema.GroupVersion{}, rest.IsConfigTransportTLS(*config))
	if err != nil {
		return false, fmt.Errorf("parsing server url: %w", err)
	}
	u.Path = pingPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return false, fmt.Errorf("building ping request: %w", err)
	}
	req.Header.Set("Accept", "*/*")

	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("pinging %s: %w", u, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	enabled := resp.Header.Get(flowcontrolapi.ResponseHeaderMatchedFlowSchemaUID) != ""
	klog.V(4).Infof("server-side throttling enabled: %t", enabled)
	return enabled, nil
}

// DisableClientThrottling turns the client-side rate limiter off when the
// server enforces API Priority and Fairness. It returns whether the
// config was changed. Detection failures leave the config untouched.
func DisableClientThrottling(ctx context.Context, config *rest.Config) bool {
	enabled, err := IsEnabled(ctx, config)
	if err != nil {
		klog.V(3).Infof("checking server-side throttling enablement: %v", err)
		return false
	}
	if !enabled {
		return false
	}
	klog.V(3).Infof("Client-side throttling disabled")
	config.QPS = -1
	config.Burst = -1
	return true
}
