package server

import (
	"context"
	"mime"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/jupiterbrains/kyc-platform/internal/models"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/docanalysis"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/extract"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/inference"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/store"
)

// WorkflowRunner runs the full KYC pipeline for one email.
type WorkflowRunner interface {
	Run(ctx context.Context, email models.EmailInput, requester models.Requester) models.WorkflowResult
}

// UsageReporter exposes the inference provider's usage counters.
type UsageReporter interface {
	Usage() inference.UsageStats
}

// Deps are the components the HTTP layer dispatches into.
type Deps struct {
	Workflow  WorkflowRunner
	Extractor *extract.Extractor
	Analyzer  *docanalysis.Analyzer
	Runs      *store.RunStore
	Usage     UsageReporter
}

// NewRouter builds the gin router with all service routes.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.Default()

	r.GET("/health", handleHealth)

	api := r.Group("/api")
	{
		kyc := api.Group("/kyc")
		{
			kyc.GET("/health", handleHealth)
			kyc.POST("/process-complete", deps.handleProcessComplete)
		}

		documents := api.Group("/documents")
		{
			documents.POST("/analyze", deps.handleAnalyzeDocument)
			documents.POST("/tamper-detect", deps.handleTamperDetect)
		}

		api.GET("/erp/records", deps.handleERPRecords)
		api.GET("/inference/usage", deps.handleInferenceUsage)
	}

	return r
}

// requesterFromHeaders reads the identity headers set by the auth
// layer. Both absent means an anonymous run.
func requesterFromHeaders(c *gin.Context) models.Requester {
	email := c.GetHeader("X-Requester-Email")
	name := c.GetHeader("X-Requester-Name")
	if email == "" && name == "" {
		return nil
	}
	return models.HeaderRequester{Addr: email, Name: name}
}

// attachmentContentType resolves the MIME type of an upload, falling
// back to the filename extension when the part carries none.
func attachmentContentType(declared, filename string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if byExt := mime.TypeByExtension(filepath.Ext(filename)); byExt != "" {
		return byExt
	}
	return declared
}
