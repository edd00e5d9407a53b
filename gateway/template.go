package gateway

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/publicsuffix"
)

const (
	titlePrefix        = "fireprox_"
	wildcardPath       = "/{proxy+}"
	proxySegment       = "/{proxy}"
	proxyParam         = "proxy"
	anyMethodKey       = "x-amazon-apigateway-any-method"
	cacheNamespace     = "irx7tm"
	forwardedForHeader = "X-My-X-Forwarded-For"
	versionTimeLayout  = "2006-01-02T15:04:05Z"
)

type (
	// document represents a swagger 2.0 gateway definition with API gateway integration extensions
	document struct {
		Swagger  string                        `json:"swagger"`
		Info     documentInfo                  `json:"info"`
		BasePath string                        `json:"basePath"`
		Schemes  []string                      `json:"schemes"`
		Paths    map[string]map[string]*method `json:"paths"`
	}

	documentInfo struct {
		Version string `json:"version"`
		Title   string `json:"title"`
	}

	method struct {
		Produces    []string               `json:"produces,omitempty"`
		Parameters  []parameter            `json:"parameters"`
		Responses   map[string]interface{} `json:"responses"`
		Integration *integration           `json:"x-amazon-apigateway-integration"`
	}

	parameter struct {
		Name     string `json:"name"`
		In       string `json:"in"`
		Required bool   `json:"required"`
		Type     string `json:"type"`
	}

	integration struct {
		URI                 string                    `json:"uri"`
		Responses           map[string]statusResponse `json:"responses"`
		RequestParameters   map[string]string         `json:"requestParameters"`
		PassthroughBehavior string                    `json:"passthroughBehavior"`
		HTTPMethod          string                    `json:"httpMethod"`
		CacheNamespace      string                    `json:"cacheNamespace"`
		CacheKeyParameters  []string                  `json:"cacheKeyParameters"`
		Type                string                    `json:"type"`
	}

	statusResponse struct {
		StatusCode string `json:"statusCode"`
	}
)

// Template generates gateway definition documents for a backend URL
type Template struct {
	now func() time.Time
}

// Generate renders a definition document proxying all traffic to supplied backend URL
func (t *Template) Generate(URL string) ([]byte, error) {
	if URL == "" {
		return nil, errors.New("please provide a valid URL end-point")
	}
	target := StripTrailingSlash(URL)
	doc := &document{
		Swagger: "2.0",
		Info: documentInfo{
			Version: t.now().UTC().Format(versionTimeLayout),
			Title:   Title(target),
		},
		BasePath: "/",
		Schemes:  []string{"https"},
		Paths: map[string]map[string]*method{
			"/": {
				"get": newProxyMethod(target+"/", nil),
			},
			wildcardPath: {
				anyMethodKey: newProxyMethod(target+proxySegment, []string{"application/json"}),
			},
		},
	}
	return json.MarshalIndent(doc, "", "  ")
}

func newProxyMethod(URI string, produces []string) *method {
	return &method{
		Produces: produces,
		Parameters: []parameter{
			{Name: proxyParam, In: "path", Required: true, Type: "string"},
			{Name: forwardedForHeader, In: "header", Required: false, Type: "string"},
		},
		Responses: map[string]interface{}{},
		Integration: &integration{
			URI: URI,
			Responses: map[string]statusResponse{
				"default": {StatusCode: "200"},
			},
			RequestParameters: map[string]string{
				"integration.request.path.proxy":             "method.request.path.proxy",
				"integration.request.header.X-Forwarded-For": "method.request.header." + forwardedForHeader,
			},
			PassthroughBehavior: "when_no_match",
			HTTPMethod:          "ANY",
			CacheNamespace:      cacheNamespace,
			CacheKeyParameters:  []string{"method.request.path.proxy"},
			Type:                "http_proxy",
		},
	}
}

// StripTrailingSlash removes a single trailing slash
func StripTrailingSlash(URL string) string {
	return strings.TrimSuffix(URL, "/")
}

// Title derives a gateway title from the registrable domain of supplied URL
func Title(URL string) string {
	host := URL
	if parsed, err := url.Parse(URL); err == nil && parsed.Hostname() != "" {
		host = parsed.Hostname()
	}
	domain := host
	if eTLDPlusOne, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		suffix, _ := publicsuffix.PublicSuffix(eTLDPlusOne)
		domain = strings.TrimSuffix(eTLDPlusOne, "."+suffix)
	}
	return titlePrefix + domain
}

// NewTemplate creates a definition document template
func NewTemplate() *Template {
	return &Template{now: time.Now}
}
