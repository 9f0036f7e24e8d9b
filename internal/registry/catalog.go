package registry

// DefaultCatalog is the stock integration catalog used when no catalog is
// configured. Configuration data, not logic.
func DefaultCatalog() []ServiceRecord {
	return []ServiceRecord{
		{
			ID:          "ADOB_ANL",
			DisplayName: "Adobe Analytics",
			Category:    CategoryDataSignal,
			Endpoint:    "https://logs.adobe.com/anl",
			Active:      true,
		},
		{
			ID:          "GOGL_ANL",
			DisplayName: "Google Analytics",
			Category:    CategoryDataSignal,
			Endpoint:    "https://analytics.google.com/data",
			Active:      true,
		},
		{
			ID:          "GOGL_CLD_LOG",
			DisplayName: "Google Cloud Logging",
			Category:    CategoryCloudInfra,
			Endpoint:    "https://logging.gcp.com/ingest",
			Active:      true,
		},
		{
			ID:          "AZUR_MNTR",
			DisplayName: "Azure Monitor",
			Category:    CategoryCloudInfra,
			Endpoint:    "https://monitor.azure.com/log",
			Active:      true,
		},
		{
			ID:          "PIPD_DRM_EV",
			DisplayName: "Pipedream Event Bus",
			Category:    CategoryDevOps,
			Endpoint:    "https://api.pipedream.com/event",
			Active:      true,
		},
		{
			ID:          "GEMINI_AI",
			DisplayName: "Gemini Reasoning Engine",
			Category:    CategoryAIIntegration,
			Endpoint:    "https://api.gemini.ai",
			Active:      true,
		},
	}
}
