package gateway

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigateway"
	"github.com/aws/aws-sdk-go-v2/service/apigateway/types"
	"github.com/stretchr/testify/assert"
)

type fakeManagementAPI struct {
	pages           [][]types.RestApi
	resources       map[string][]types.Resource
	integrations    map[string]string
	importOutput    *apigateway.ImportRestApiOutput
	updatedURI      string
	importInput     *apigateway.ImportRestApiInput
	deploymentInput *apigateway.CreateDeploymentInput
	updateInput     *apigateway.UpdateIntegrationInput
	deleted         []string
}

func (f *fakeManagementAPI) ImportRestApi(ctx context.Context, input *apigateway.ImportRestApiInput, optFns ...func(*apigateway.Options)) (*apigateway.ImportRestApiOutput, error) {
	f.importInput = input
	return f.importOutput, nil
}

func (f *fakeManagementAPI) CreateDeployment(ctx context.Context, input *apigateway.CreateDeploymentInput, optFns ...func(*apigateway.Options)) (*apigateway.CreateDeploymentOutput, error) {
	f.deploymentInput = input
	return &apigateway.CreateDeploymentOutput{Id: aws.String("dep001")}, nil
}

func (f *fakeManagementAPI) GetRestApis(ctx context.Context, input *apigateway.GetRestApisInput, optFns ...func(*apigateway.Options)) (*apigateway.GetRestApisOutput, error) {
	if len(f.pages) == 0 {
		return &apigateway.GetRestApisOutput{}, nil
	}
	output := &apigateway.GetRestApisOutput{Items: f.pages[0]}
	f.pages = f.pages[1:]
	if len(f.pages) > 0 {
		output.Position = aws.String("next")
	}
	return output, nil
}

func (f *fakeManagementAPI) GetResources(ctx context.Context, input *apigateway.GetResourcesInput, optFns ...func(*apigateway.Options)) (*apigateway.GetResourcesOutput, error) {
	return &apigateway.GetResourcesOutput{Items: f.resources[aws.ToString(input.RestApiId)]}, nil
}

func (f *fakeManagementAPI) GetIntegration(ctx context.Context, input *apigateway.GetIntegrationInput, optFns ...func(*apigateway.Options)) (*apigateway.GetIntegrationOutput, error) {
	URI := f.integrations[aws.ToString(input.RestApiId)]
	return &apigateway.GetIntegrationOutput{Uri: aws.String(URI)}, nil
}

func (f *fakeManagementAPI) UpdateIntegration(ctx context.Context, input *apigateway.UpdateIntegrationInput, optFns ...func(*apigateway.Options)) (*apigateway.UpdateIntegrationOutput, error) {
	f.updateInput = input
	URI := f.updatedURI
	if URI == "" {
		URI = aws.ToString(input.PatchOperations[0].Value)
	}
	return &apigateway.UpdateIntegrationOutput{Uri: aws.String(URI)}, nil
}

func (f *fakeManagementAPI) DeleteRestApi(ctx context.Context, input *apigateway.DeleteRestApiInput, optFns ...func(*apigateway.Options)) (*apigateway.DeleteRestApiOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(input.RestApiId))
	return &apigateway.DeleteRestApiOutput{}, nil
}

func (f *fakeManagementAPI) GetAccount(ctx context.Context, input *apigateway.GetAccountInput, optFns ...func(*apigateway.Options)) (*apigateway.GetAccountOutput, error) {
	return &apigateway.GetAccountOutput{}, nil
}

func newTestService(client managementAPI) *Service {
	return &Service{
		config:   &Config{Region: DefaultRegion},
		client:   client,
		region:   DefaultRegion,
		template: NewTemplate(),
	}
}

func wildcardResources(id string) []types.Resource {
	return []types.Resource{
		{Id: aws.String("root01"), Path: aws.String("/")},
		{Id: aws.String(id), Path: aws.String(wildcardPath)},
	}
}

func TestService_Create(t *testing.T) {
	created := time.Date(2024, 7, 11, 15, 4, 5, 0, time.UTC)
	client := &fakeManagementAPI{
		importOutput: &apigateway.ImportRestApiOutput{
			Id:          aws.String("abc123"),
			Name:        aws.String("fireprox_example"),
			CreatedDate: &created,
			Version:     aws.String("2024-07-11T15:04:05Z"),
		},
	}
	srv := newTestService(client)
	api, err := srv.Create(context.Background(), "https://example.com/")
	if !assert.Nil(t, err) {
		return
	}
	assert.Equal(t, "abc123", api.ID)
	assert.Equal(t, "fireprox_example", api.Name)
	assert.Equal(t, "https://example.com", api.TargetURL)
	assert.Equal(t, "https://abc123.execute-api.us-east-1.amazonaws.com/fireprox/", api.InvokeURL)
	assert.Equal(t, created, api.CreatedOn)

	if assert.NotNil(t, client.importInput) {
		assert.Equal(t, regionalEndpoint, client.importInput.Parameters[endpointConfigurationKey])
		body := string(client.importInput.Body)
		assert.Equal(t, 2, strings.Count(body, "https://example.com"))
	}
	if assert.NotNil(t, client.deploymentInput) {
		assert.Equal(t, stageName, aws.ToString(client.deploymentInput.StageName))
		assert.Equal(t, "abc123", aws.ToString(client.deploymentInput.RestApiId))
	}
}

func TestService_CreateEmptyURL(t *testing.T) {
	srv := newTestService(&fakeManagementAPI{})
	_, err := srv.Create(context.Background(), "")
	assert.NotNil(t, err)
}

func TestService_List(t *testing.T) {
	created := time.Date(2024, 7, 11, 15, 4, 5, 0, time.UTC)
	client := &fakeManagementAPI{
		pages: [][]types.RestApi{
			{
				{Id: aws.String("abc123"), Name: aws.String("fireprox_example"), CreatedDate: &created},
			},
			{
				{Id: aws.String("xyz789"), Name: aws.String("fireprox_github"), CreatedDate: &created},
			},
		},
		resources: map[string][]types.Resource{
			"abc123": wildcardResources("res001"),
		},
		integrations: map[string]string{
			"abc123": "https://example.com/{proxy}",
		},
	}
	srv := newTestService(client)
	apis, err := srv.List(context.Background())
	if !assert.Nil(t, err) {
		return
	}
	if !assert.Equal(t, 2, len(apis)) {
		return
	}
	assert.Equal(t, "abc123", apis[0].ID)
	assert.Equal(t, "https://example.com/", apis[0].TargetURL)
	assert.Equal(t, "https://abc123.execute-api.us-east-1.amazonaws.com/fireprox/", apis[0].InvokeURL)
	// gateway without a wildcard resource has no resolvable target
	assert.Equal(t, "", apis[1].TargetURL)
}

func TestService_Update(t *testing.T) {
	var useCases = []struct {
		description string
		client      *fakeManagementAPI
		apiID       string
		URL         string
		expect      bool
		hasError    bool
	}{
		{
			description: "integration URI matches requested URL",
			client: &fakeManagementAPI{
				resources: map[string][]types.Resource{
					"abc123": wildcardResources("res001"),
				},
			},
			apiID:  "abc123",
			URL:    "https://example.com/",
			expect: true,
		},
		{
			description: "integration URI does not match requested URL",
			client: &fakeManagementAPI{
				resources: map[string][]types.Resource{
					"abc123": wildcardResources("res001"),
				},
				updatedURI: "https://other.com/{proxy}",
			},
			apiID:  "abc123",
			URL:    "https://example.com",
			expect: false,
		},
		{
			description: "no wildcard resource",
			client: &fakeManagementAPI{
				resources: map[string][]types.Resource{
					"abc123": {{Id: aws.String("root01"), Path: aws.String("/")}},
				},
			},
			apiID:    "abc123",
			URL:      "https://example.com",
			hasError: true,
		},
		{
			description: "missing api ID",
			client:      &fakeManagementAPI{},
			URL:         "https://example.com",
			hasError:    true,
		},
	}

	for _, useCase := range useCases {
		srv := newTestService(useCase.client)
		updated, err := srv.Update(context.Background(), useCase.apiID, useCase.URL)
		if useCase.hasError {
			assert.NotNil(t, err, useCase.description)
			continue
		}
		if !assert.Nil(t, err, useCase.description) {
			continue
		}
		assert.Equal(t, useCase.expect, updated, useCase.description)
		if updated && assert.NotNil(t, useCase.client.updateInput, useCase.description) {
			patch := useCase.client.updateInput.PatchOperations[0]
			assert.Equal(t, types.OpReplace, patch.Op, useCase.description)
			assert.Equal(t, integrationURIPath, aws.ToString(patch.Path), useCase.description)
			assert.Equal(t, "https://example.com/{proxy}", aws.ToString(patch.Value), useCase.description)
		}
	}
}

func TestService_Delete(t *testing.T) {
	var useCases = []struct {
		description  string
		apiID        string
		expect       bool
		expectDelete []string
	}{
		{
			description:  "gateway present in listing",
			apiID:        "abc123",
			expect:       true,
			expectDelete: []string{"abc123"},
		},
		{
			description: "gateway absent from listing",
			apiID:       "missing",
			expect:      false,
		},
	}

	for _, useCase := range useCases {
		client := &fakeManagementAPI{
			pages: [][]types.RestApi{
				{
					{Id: aws.String("abc123"), Name: aws.String("fireprox_example")},
				},
			},
			resources: map[string][]types.Resource{
				"abc123": wildcardResources("res001"),
			},
			integrations: map[string]string{
				"abc123": "https://example.com/{proxy}",
			},
		}
		srv := newTestService(client)
		deleted, err := srv.Delete(context.Background(), useCase.apiID)
		if !assert.Nil(t, err, useCase.description) {
			continue
		}
		assert.Equal(t, useCase.expect, deleted, useCase.description)
		assert.Equal(t, useCase.expectDelete, client.deleted, useCase.description)
	}
}

func TestService_DeleteEmptyID(t *testing.T) {
	srv := newTestService(&fakeManagementAPI{})
	_, err := srv.Delete(context.Background(), "")
	assert.NotNil(t, err)
}
