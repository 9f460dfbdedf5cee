package ebay

import (
	"context"
	"fmt"
	"time"

	"card-flipper/internal/market"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://svcs.ebay.com/services/search/FindingService/v1"

// Client fetches marketplace listing records from the eBay Finding API.
// It is the ingestion collaborator: the analytics engine never talks to the
// network itself, only to the listing store the client fills.
type Client struct {
	appID string
	http  *resty.Client
}

// NewClient creates an eBay client with the given application ID.
func NewClient(appID string) *Client {
	c := resty.New()
	c.SetBaseURL(defaultBaseURL)
	c.SetTimeout(15 * time.Second)
	c.SetHeader("Accept", "application/json")
	return &Client{appID: appID, http: c}
}

// SetBaseURL overrides the API endpoint. Test hook.
func (c *Client) SetBaseURL(url string) {
	c.http.SetBaseURL(url)
}

// findingResponse is the subset of the Finding API envelope we consume.
type findingResponse struct {
	FindItemsByKeywordsResponse []struct {
		SearchResult []struct {
			Item []findingItem `json:"item"`
		} `json:"searchResult"`
	} `json:"findItemsByKeywordsResponse"`
	FindCompletedItemsResponse []struct {
		SearchResult []struct {
			Item []findingItem `json:"item"`
		} `json:"searchResult"`
	} `json:"findCompletedItemsResponse"`
}

type findingItem struct {
	ListingInfo []struct {
		ListingType []string `json:"listingType"`
		StartTime   []string `json:"startTime"`
		EndTime     []string `json:"endTime"`
	} `json:"listingInfo"`
	SellingStatus []struct {
		CurrentPrice []struct {
			Value string `json:"__value__"`
		} `json:"currentPrice"`
		SellingState []string `json:"sellingState"`
	} `json:"sellingStatus"`
}

// SearchListings fetches listings for a product query. status selects the
// completed-items operation (sold) or the live keyword search (active).
func (c *Client) SearchListings(ctx context.Context, productID string, status market.ListingStatus) ([]market.Listing, error) {
	operation := "findItemsByKeywords"
	if status == market.StatusSold {
		operation = "findCompletedItems"
	}

	var out findingResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"OPERATION-NAME":       operation,
			"SECURITY-APPNAME":     c.appID,
			"RESPONSE-DATA-FORMAT": "JSON",
			"keywords":             productID,
		}).
		SetResult(&out).
		Get("")
	if err != nil {
		return nil, fmt.Errorf("ebay %s: %w", operation, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ebay %s: HTTP %d", operation, resp.StatusCode())
	}

	return flattenItems(productID, status, &out), nil
}

// flattenItems converts the Finding API's array-of-arrays shape into flat
// listing records. Items without a parseable price are dropped.
func flattenItems(productID string, status market.ListingStatus, out *findingResponse) []market.Listing {
	var items []findingItem
	for _, env := range out.FindItemsByKeywordsResponse {
		for _, sr := range env.SearchResult {
			items = append(items, sr.Item...)
		}
	}
	for _, env := range out.FindCompletedItemsResponse {
		for _, sr := range env.SearchResult {
			items = append(items, sr.Item...)
		}
	}

	listings := make([]market.Listing, 0, len(items))
	for _, item := range items {
		price, observed, source, ok := itemFields(item, status)
		if !ok {
			continue
		}
		listings = append(listings, market.Listing{
			ProductID:  productID,
			Price:      price,
			Status:     status,
			Source:     source,
			ObservedAt: observed,
		})
	}
	return listings
}

func itemFields(item findingItem, status market.ListingStatus) (price float64, observed time.Time, source string, ok bool) {
	if len(item.SellingStatus) == 0 || len(item.SellingStatus[0].CurrentPrice) == 0 {
		return 0, time.Time{}, "", false
	}
	if _, err := fmt.Sscanf(item.SellingStatus[0].CurrentPrice[0].Value, "%f", &price); err != nil || price <= 0 {
		return 0, time.Time{}, "", false
	}

	source = "eBay Buy-It-Now"
	observed = time.Now().UTC()
	if len(item.ListingInfo) > 0 {
		info := item.ListingInfo[0]
		if len(info.ListingType) > 0 && info.ListingType[0] == "Auction" {
			source = "eBay Auctions"
		}
		// Sold listings are stamped at auction end, active ones at start.
		stamp := info.StartTime
		if status == market.StatusSold {
			stamp = info.EndTime
		}
		if len(stamp) > 0 {
			if t, err := time.Parse(time.RFC3339, stamp[0]); err == nil {
				observed = t
			}
		}
	}
	return price, observed, source, true
}
