package gateway

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigateway"
	"github.com/aws/aws-sdk-go-v2/service/apigateway/types"
	"github.com/pkg/errors"
	"github.com/viant/gmetric"
	"github.com/viant/gmetric/counter"
)

const (
	stageName             = "fireprox"
	stageDescription      = "FireProx Prod"
	deploymentDescription = "FireProx Production Deployment"

	anyMethod                = "ANY"
	endpointConfigurationKey = "endpointConfigurationTypes"
	regionalEndpoint         = "REGIONAL"
	integrationURIPath       = "/uri"

	metricURI = "/v1/metrics"
)

// managementAPI abstracts the API gateway management operations used by the service
type managementAPI interface {
	ImportRestApi(ctx context.Context, input *apigateway.ImportRestApiInput, optFns ...func(*apigateway.Options)) (*apigateway.ImportRestApiOutput, error)
	CreateDeployment(ctx context.Context, input *apigateway.CreateDeploymentInput, optFns ...func(*apigateway.Options)) (*apigateway.CreateDeploymentOutput, error)
	GetRestApis(ctx context.Context, input *apigateway.GetRestApisInput, optFns ...func(*apigateway.Options)) (*apigateway.GetRestApisOutput, error)
	GetResources(ctx context.Context, input *apigateway.GetResourcesInput, optFns ...func(*apigateway.Options)) (*apigateway.GetResourcesOutput, error)
	GetIntegration(ctx context.Context, input *apigateway.GetIntegrationInput, optFns ...func(*apigateway.Options)) (*apigateway.GetIntegrationOutput, error)
	UpdateIntegration(ctx context.Context, input *apigateway.UpdateIntegrationInput, optFns ...func(*apigateway.Options)) (*apigateway.UpdateIntegrationOutput, error)
	DeleteRestApi(ctx context.Context, input *apigateway.DeleteRestApiInput, optFns ...func(*apigateway.Options)) (*apigateway.DeleteRestApiOutput, error)
	GetAccount(ctx context.Context, input *apigateway.GetAccountInput, optFns ...func(*apigateway.Options)) (*apigateway.GetAccountOutput, error)
}

// Service manages pass-through proxy gateways
type Service struct {
	config   *Config
	client   managementAPI
	region   string
	template *Template
	metrics  *gmetric.Service
	stats    *gmetric.Operation
	auditor  *auditor
}

// Region returns the effective AWS region
func (s *Service) Region() string {
	return s.region
}

// Create provisions a new gateway proxying all traffic to supplied backend URL
func (s *Service) Create(ctx context.Context, URL string) (api *API, err error) {
	if URL == "" {
		return nil, errors.New("please provide a valid URL end-point")
	}
	onDone := s.begin()
	defer func() { s.end(onDone, statCreate, err) }()

	target := StripTrailingSlash(URL)
	body, err := s.template.Generate(target)
	if err != nil {
		return nil, err
	}
	output, err := s.client.ImportRestApi(ctx, &apigateway.ImportRestApiInput{
		Body: body,
		Parameters: map[string]string{
			endpointConfigurationKey: regionalEndpoint,
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to import gateway definition for %v", target)
	}
	apiID := aws.ToString(output.Id)
	if _, err = s.client.CreateDeployment(ctx, &apigateway.CreateDeploymentInput{
		RestApiId:        aws.String(apiID),
		StageName:        aws.String(stageName),
		StageDescription: aws.String(stageDescription),
		Description:      aws.String(deploymentDescription),
	}); err != nil {
		return nil, errors.Wrapf(err, "failed to create deployment for %v", apiID)
	}
	api = &API{
		ID:        apiID,
		Name:      aws.ToString(output.Name),
		Version:   aws.ToString(output.Version),
		TargetURL: target,
		InvokeURL: s.invokeURL(apiID),
	}
	if output.CreatedDate != nil {
		api.CreatedOn = *output.CreatedDate
	}
	_ = s.auditor.Log(statCreate, apiID, target)
	return api, nil
}

// List returns all gateways in the account with their backend targets
func (s *Service) List(ctx context.Context) (apis []*API, err error) {
	onDone := s.begin()
	defer func() { s.end(onDone, statList, err) }()

	input := &apigateway.GetRestApisInput{}
	for {
		output, err := s.client.GetRestApis(ctx, input)
		if err != nil {
			return nil, errors.Wrap(err, "failed to list gateways")
		}
		for i := range output.Items {
			item := &output.Items[i]
			api := &API{
				ID:        aws.ToString(item.Id),
				Name:      aws.ToString(item.Name),
				Version:   aws.ToString(item.Version),
				InvokeURL: s.invokeURL(aws.ToString(item.Id)),
			}
			if item.CreatedDate != nil {
				api.CreatedOn = *item.CreatedDate
			}
			if URI, err := s.integrationURI(ctx, api.ID); err == nil {
				api.TargetURL = strings.ReplaceAll(URI, "{"+proxyParam+"}", "")
			}
			apis = append(apis, api)
		}
		input.Position = output.Position
		if output.Position == nil {
			break
		}
	}
	return apis, nil
}

// Update patches the backend URL of an existing gateway,
// it returns true if the resulting integration URI matches the requested URL
func (s *Service) Update(ctx context.Context, apiID, URL string) (updated bool, err error) {
	if apiID == "" || URL == "" {
		return false, errors.New("please provide a valid API ID and URL end-point")
	}
	onDone := s.begin()
	defer func() { s.end(onDone, statUpdate, err) }()

	target := StripTrailingSlash(URL)
	resourceID, err := s.wildcardResource(ctx, apiID)
	if err != nil {
		return false, err
	}
	if resourceID == "" {
		return false, errors.Errorf("unable to update, no valid resource for %v", apiID)
	}
	output, err := s.client.UpdateIntegration(ctx, &apigateway.UpdateIntegrationInput{
		RestApiId:  aws.String(apiID),
		ResourceId: aws.String(resourceID),
		HttpMethod: aws.String(anyMethod),
		PatchOperations: []types.PatchOperation{
			{
				Op:    types.OpReplace,
				Path:  aws.String(integrationURIPath),
				Value: aws.String(target + proxySegment),
			},
		},
	})
	if err != nil {
		return false, errors.Wrapf(err, "failed to update integration for %v", apiID)
	}
	_ = s.auditor.Log(statUpdate, apiID, target)
	return strings.ReplaceAll(aws.ToString(output.Uri), proxySegment, "") == target, nil
}

// Delete removes a gateway, it returns true only when supplied ID was present in the account listing
func (s *Service) Delete(ctx context.Context, apiID string) (deleted bool, err error) {
	if apiID == "" {
		return false, errors.New("please provide a valid API ID")
	}
	apis, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	onDone := s.begin()
	defer func() { s.end(onDone, statDelete, err) }()

	for _, api := range apis {
		if api.ID != apiID {
			continue
		}
		if _, err = s.client.DeleteRestApi(ctx, &apigateway.DeleteRestApiInput{
			RestApiId: aws.String(apiID),
		}); err != nil {
			return false, errors.Wrapf(err, "failed to delete gateway %v", apiID)
		}
		_ = s.auditor.Log(statDelete, apiID, "")
		return true, nil
	}
	return false, nil
}

// Close releases service resources
func (s *Service) Close() error {
	return s.auditor.Close()
}

func (s *Service) wildcardResource(ctx context.Context, apiID string) (string, error) {
	output, err := s.client.GetResources(ctx, &apigateway.GetResourcesInput{
		RestApiId: aws.String(apiID),
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to list resources for %v", apiID)
	}
	for i := range output.Items {
		if aws.ToString(output.Items[i].Path) == wildcardPath {
			return aws.ToString(output.Items[i].Id), nil
		}
	}
	return "", nil
}

func (s *Service) integrationURI(ctx context.Context, apiID string) (string, error) {
	resourceID, err := s.wildcardResource(ctx, apiID)
	if err != nil {
		return "", err
	}
	if resourceID == "" {
		return "", errors.Errorf("no wildcard resource for %v", apiID)
	}
	output, err := s.client.GetIntegration(ctx, &apigateway.GetIntegrationInput{
		RestApiId:  aws.String(apiID),
		ResourceId: aws.String(resourceID),
		HttpMethod: aws.String(anyMethod),
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to get integration for %v", apiID)
	}
	return aws.ToString(output.Uri), nil
}

func (s *Service) invokeURL(apiID string) string {
	return fmt.Sprintf("https://%v.execute-api.%v.amazonaws.com/%v/", apiID, s.region, stageName)
}

func (s *Service) begin() counter.OnDone {
	if s.stats == nil {
		return nil
	}
	return s.stats.Begin(time.Now())
}

func (s *Service) end(onDone counter.OnDone, kind string, err error) {
	if onDone == nil {
		return
	}
	if err != nil {
		onDone(time.Now(), err)
		return
	}
	onDone(time.Now(), kind)
}

// StartMetricsEndpoint exposes operation metrics over HTTP
func (s *Service) StartMetricsEndpoint() {
	if s.config.MetricPort == 0 {
		return
	}
	mux := http.NewServeMux()
	mux.Handle(metricURI, gmetric.NewHandler(metricURI, s.metrics))
	server := &http.Server{
		Addr:    ":" + strconv.Itoa(s.config.MetricPort),
		Handler: mux,
	}
	go server.ListenAndServe()
}

// New creates a gateway management service
func New(ctx context.Context, config *Config) (*Service, error) {
	if config == nil {
		config = &Config{}
	}
	config.Init()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	strategy := resolveStrategy(config)
	awsConfig, err := strategy.Load(ctx, config)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load AWS credentials with %v strategy", strategy.Name())
	}
	client := apigateway.NewFromConfig(*awsConfig)
	srv := &Service{
		config:   config,
		client:   client,
		region:   awsConfig.Region,
		template: NewTemplate(),
		metrics:  gmetric.New(),
	}
	if srv.region == "" {
		srv.region = config.Region
	}
	if _, ok := strategy.(defaultStrategy); ok {
		if _, err = client.GetAccount(ctx, &apigateway.GetAccountInput{}); err != nil {
			return nil, errors.Wrap(err, "unable to load AWS credentials")
		}
	}
	location := reflect.TypeOf(Service{}).PkgPath()
	srv.stats = srv.metrics.MultiOperationCounter(location, operationMetricName, "gateway operation performance", time.Microsecond, time.Microsecond, 3, newOperations())
	if config.AuditURL != "" {
		if srv.auditor, err = newAuditor(config.AuditURL); err != nil {
			return nil, errors.Wrapf(err, "failed to create audit logger for %v", config.AuditURL)
		}
	}
	if config.MetricPort > 0 {
		srv.StartMetricsEndpoint()
	}
	return srv, nil
}
