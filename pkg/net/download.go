// Package net fetches remote dataset exports over HTTP.
package net

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	maxIdleConns     = 10
	timeoutInSeconds = 60
	clientAgent      = "wqctl-dataset-fetcher"
)

var (
	// ErrURLNotFound is returned when the dataset URL does not exist.
	ErrURLNotFound = errors.New("dataset URL not found")

	transport = &http.Transport{
		MaxIdleConns:          maxIdleConns,
		IdleConnTimeout:       timeoutInSeconds * time.Second,
		ResponseHeaderTimeout: timeoutInSeconds * time.Second,
	}
)

// GetHTTPClient returns the shared client used for dataset downloads.
func GetHTTPClient() *http.Client {
	return &http.Client{
		Transport: transport,
		Timeout:   timeoutInSeconds * time.Second,
	}
}

// IsURL reports whether source names a remote dataset rather than a local file.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Download fetches a remote dataset into the given file path.
func Download(url, filePath string) (retErr error) {
	out, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "error creating download target: %s", filePath)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && retErr == nil {
			retErr = errors.Wrap(cerr, "closing download target")
		}
	}()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrapf(err, "error creating HTTP Get request: %s", url)
	}
	req.Header.Set("User-Agent", clientAgent)

	resp, err := GetHTTPClient().Do(req)
	if err != nil {
		return errors.Wrapf(err, "error fetching dataset: %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrURLNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("error downloading dataset (status: %d - %s): %s", resp.StatusCode, resp.Status, url)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		return errors.Wrap(err, "error saving downloaded dataset")
	}

	return nil
}
