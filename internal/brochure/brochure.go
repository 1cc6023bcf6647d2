// Package brochure bundles the generated platform graphics of a kit into a single PDF for
// download.
package brochure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Lllllllleong/marketingkitflow/internal/metrics"
	"github.com/Lllllllleong/marketingkitflow/internal/models"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"
)

const defaultMaxImageBytes = 20 << 20

// Publisher stores the finished PDF under a fixed name, replacing any earlier version.
type Publisher interface {
	Replace(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

type Builder struct {
	publisher     Publisher
	httpClient    *http.Client
	maxImageBytes int64
}

func NewBuilder(publisher Publisher, httpClient *http.Client) *Builder {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Builder{publisher: publisher, httpClient: httpClient, maxImageBytes: defaultMaxImageBytes}
}

// ObjectName is where the brochure of a property is stored.
func ObjectName(propertyID string) string {
	return fmt.Sprintf("brochures/%s/marketing-kit.pdf", propertyID)
}

// Build downloads every asset, imports them one per page in asset order and publishes the
// PDF. It returns the brochure's public URL.
func (b *Builder) Build(ctx context.Context, propertyID string, assets []models.GeneratedAsset) (string, error) {
	logCtx := slog.With("propertyId", propertyID)
	if len(assets) == 0 {
		return "", errors.New("no graphics to include in brochure")
	}

	tempDir, err := os.MkdirTemp("", "brochure-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	files := make([]string, len(assets))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for i, asset := range assets {
		path := filepath.Join(tempDir, fmt.Sprintf("%02d-%s.png", i, asset.Platform))
		files[i] = path
		eg.Go(func() error {
			if err := b.download(gctx, asset.URL, path); err != nil {
				return fmt.Errorf("%s graphic: %w", asset.Platform, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		metrics.BrochuresTotal.WithLabelValues("failed").Inc()
		return "", err
	}

	outPath := filepath.Join(tempDir, "marketing-kit.pdf")
	if err := api.ImportImagesFile(files, outPath, pdfcpu.DefaultImportConfig(), model.NewDefaultConfiguration()); err != nil {
		metrics.BrochuresTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("failed to import images into PDF: %w", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to read brochure: %w", err)
	}

	url, err := b.publisher.Replace(ctx, ObjectName(propertyID), data, "application/pdf")
	if err != nil {
		metrics.BrochuresTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("failed to publish brochure: %w", err)
	}
	metrics.BrochuresTotal.WithLabelValues("success").Inc()
	logCtx.Info("Brochure published.", "pages", len(files), "url", url)
	return url, nil
}

func (b *Builder) download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: http %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	defer out.Close()
	n, err := io.Copy(out, io.LimitReader(resp.Body, b.maxImageBytes+1))
	if err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	if n > b.maxImageBytes {
		return fmt.Errorf("image exceeds %d bytes", b.maxImageBytes)
	}
	return nil
}
