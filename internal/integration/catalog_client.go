// Package integration handles external service interactions
package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/abelzeko/plant-manager/internal/entities"
)

// AllEnvironments is the synthetic environment key that matches every plant
const AllEnvironments = "all"

// ErrCatalogPlantNotFound is returned when the catalog has no plant with the requested id
var ErrCatalogPlantNotFound = errors.New("plant not found in catalog")

var errStatusNotFound = errors.New("resource not found")

// CatalogClient reads plant templates and environments from the catalog backend
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewCatalogClient creates a new catalog client
func NewCatalogClient(baseURL string) *CatalogClient {
	if baseURL == "" {
		// Default local mock backend
		baseURL = "http://localhost:3333"
	}
	return &CatalogClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchPlants returns every catalog plant ordered by name
func (c *CatalogClient) FetchPlants(ctx context.Context) ([]entities.Plant, error) {
	var plants []entities.Plant
	if err := c.getJSON(ctx, "/plants?_sort=name&_order=asc", &plants); err != nil {
		return nil, fmt.Errorf("failed to fetch catalog plants: %w", err)
	}
	for i := range plants {
		plants[i] = plainText(plants[i])
	}
	zap.S().Infof("Fetched %d catalog plants", len(plants))
	return plants, nil
}

// FetchPlant returns one catalog plant by id
func (c *CatalogClient) FetchPlant(ctx context.Context, id string) (entities.Plant, error) {
	var plant entities.Plant
	err := c.getJSON(ctx, "/plants/"+url.PathEscape(id), &plant)
	if errors.Is(err, errStatusNotFound) {
		return entities.Plant{}, fmt.Errorf("%w: %s", ErrCatalogPlantNotFound, id)
	}
	if err != nil {
		return entities.Plant{}, fmt.Errorf("failed to fetch catalog plant %s: %w", id, err)
	}
	return plainText(plant), nil
}

// FetchEnvironments returns the catalog environments ordered by title,
// preceded by the synthetic "all" environment
func (c *CatalogClient) FetchEnvironments(ctx context.Context) ([]entities.Environment, error) {
	var envs []entities.Environment
	if err := c.getJSON(ctx, "/plants_environments?_sort=title&_order=asc", &envs); err != nil {
		return nil, fmt.Errorf("failed to fetch catalog environments: %w", err)
	}
	result := make([]entities.Environment, 0, len(envs)+1)
	result = append(result, entities.Environment{Key: AllEnvironments, Title: "All"})
	return append(result, envs...), nil
}

// FilterByEnvironment keeps the plants tagged with the environment key.
// The "all" key (or an empty one) keeps everything.
func FilterByEnvironment(plants []entities.Plant, key string) []entities.Plant {
	if key == "" || key == AllEnvironments {
		return plants
	}
	var filtered []entities.Plant
	for _, p := range plants {
		if p.HasEnvironment(key) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

func (c *CatalogClient) getJSON(ctx context.Context, path string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	zap.S().Debugf("Sending catalog request GET %s", path)
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return errStatusNotFound
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d %s", res.StatusCode, res.Status)
	}

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// plainText strips markup from the descriptive fields, which the catalog may send as HTML
func plainText(p entities.Plant) entities.Plant {
	p.About = htmlToText(p.About)
	p.WaterTips = htmlToText(p.WaterTips)
	return p
}

func htmlToText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		zap.S().Warnf("Failed to parse catalog text as HTML: %v", err)
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
