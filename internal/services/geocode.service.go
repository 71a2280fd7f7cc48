package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"palcontent/config"
	"palcontent/internal/constants"
	"palcontent/internal/database"
	"palcontent/internal/types"
	"strconv"
	"strings"
	"time"

	logger "github.com/Bparsons0904/goLogger"
)

const geocodeUserAgent = "pal-content-backend/1.0"

type GeocodeResult struct {
	Address     string  `json:"address"`
	Street      string  `json:"street,omitempty"`
	City        string  `json:"city,omitempty"`
	State       string  `json:"state,omitempty"`
	PostalCode  string  `json:"postalCode,omitempty"`
	Country     string  `json:"country,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"displayName"`
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		HouseNumber string `json:"house_number"`
		Road        string `json:"road"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		State       string `json:"state"`
		Postcode    string `json:"postcode"`
		Country     string `json:"country"`
	} `json:"address"`
}

// GeocodeService reverse-geocodes job locations against a Nominatim-compatible API.
type GeocodeService struct {
	log        logger.Logger
	httpClient *http.Client
	baseURL    string
	cache      database.CacheClient
}

func NewGeocodeService(cfg config.Config, cache database.CacheClient) *GeocodeService {
	return &GeocodeService{
		log:        logger.New("GeocodeService"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimSuffix(cfg.GeocodeBaseURL, "/"),
		cache:      cache,
	}
}

func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180 && !(lat == 0 && lng == 0)
}

func (s *GeocodeService) Reverse(ctx context.Context, lat, lng float64) (*GeocodeResult, error) {
	log := s.log.TraceFromContext(ctx).Function("Reverse")

	if !ValidCoordinates(lat, lng) {
		return nil, log.Err("coordinates out of range", types.ErrValidation, "lat", lat, "lng", lng)
	}

	cacheKey := fmt.Sprintf("%.5f,%.5f", lat, lng)
	var cached GeocodeResult
	if found, err := database.NewCacheBuilder(s.cache, cacheKey).
		WithContext(ctx).
		WithHash(constants.GeocodeCachePrefix).
		Get(&cached); err == nil && found {
		return &cached, nil
	}

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	query.Set("lon", strconv.FormatFloat(lng, 'f', 6, 64))
	query.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/reverse?"+query.Encode(), nil)
	if err != nil {
		return nil, log.Err("failed to create geocode request", err)
	}
	req.Header.Set("User-Agent", geocodeUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, log.Err("geocode request failed", fmt.Errorf("%w: %w", types.ErrUpstream, err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, log.Err(
			"geocode provider returned an error",
			fmt.Errorf("%w: status %d", types.ErrUpstream, resp.StatusCode),
		)
	}

	var payload nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, log.Err("failed to decode geocode response", fmt.Errorf("%w: %w", types.ErrUpstream, err))
	}
	if payload.Error != "" || payload.DisplayName == "" {
		return nil, log.Err(
			"no address found for coordinates",
			fmt.Errorf("%w: %s", types.ErrUpstream, payload.Error),
			"lat", lat, "lng", lng,
		)
	}

	result := toGeocodeResult(payload, lat, lng)

	if err := database.NewCacheBuilder(s.cache, cacheKey).
		WithContext(ctx).
		WithHash(constants.GeocodeCachePrefix).
		WithStruct(result).
		WithTTL(constants.GeocodeCacheExpiry).
		Set(); err != nil {
		log.Warn("failed to cache geocode result", "error", err)
	}

	return result, nil
}

func toGeocodeResult(payload nominatimResponse, lat, lng float64) *GeocodeResult {
	address := payload.Address
	city := address.City
	if city == "" {
		city = address.Town
	}
	if city == "" {
		city = address.Village
	}

	street := strings.TrimSpace(address.HouseNumber + " " + address.Road)

	parts := make([]string, 0, 3)
	for _, part := range []string{street, city, strings.TrimSpace(address.State + " " + address.Postcode)} {
		if part != "" {
			parts = append(parts, part)
		}
	}

	formatted := strings.Join(parts, ", ")
	if formatted == "" {
		formatted = payload.DisplayName
	}

	return &GeocodeResult{
		Address:     formatted,
		Street:      street,
		City:        city,
		State:       address.State,
		PostalCode:  address.Postcode,
		Country:     address.Country,
		Latitude:    lat,
		Longitude:   lng,
		DisplayName: payload.DisplayName,
	}
}
