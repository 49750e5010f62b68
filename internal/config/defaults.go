package config

// Default returns the built-in configuration. The tracker works without a
// config file; a file only overrides the pieces it names.
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			Queries: []string{
				"image restoration pretrained",
				"super resolution pretrained",
				"image denoising weights",
				"low light enhancement model",
			},
			MinStars:          10,
			MaxPerQuery:       20,
			YearFilter:        "2024",
			RequestsPerSecond: 0.7,
			RateLimitBuffer:   10,
			MaxRetries:        3,
		},
		Relevance: RelevanceConfig{
			Strong: []string{
				"super resolution", "super-resolution",
				"image restoration", "image denoising",
				"image enhancement", "low-light", "low light",
				"deblurring", "deraining", "dehazing", "inpainting",
			},
			Weak: []string{
				"denoising", "restoration", "enhancement", "deblur", "upscal",
			},
			Exclude: []string{
				"face recognition", "object detection", "chatbot",
				"point cloud", "speech", "audio",
			},
			ExcludeNameTerms: []string{
				"awesome", "survey", "paper-list", "papers-", "collection",
			},
		},
		Weights: WeightsConfig{
			Priority: []string{"hub", "release", "cloud", "extension"},
			Hub: []string{
				`huggingface\.co/[\w\-./]+`,
				`hf\.co/[\w\-./]+`,
				`huggingface\.co/spaces/[\w\-./]+`,
			},
			Release: []string{
				`github\.com/[\w\-.]+/[\w\-.]+/releases/download/[^\s)">]+`,
				`github\.com/[\w\-.]+/[\w\-.]+/releases/tag/[^\s)">]+`,
			},
			Cloud: []string{
				`drive\.google\.com/[^\s)">]+`,
				`dropbox\.com/[^\s)">]+`,
				`pan\.baidu\.com/[^\s)">]+`,
				`mega\.nz/[^\s)">]+`,
				`1drv\.ms/[^\s)">]+`,
			},
			ModelExtensions: []string{".pth", ".ckpt", ".safetensors", ".pt", ".onnx"},
			WeightKeywords: []string{
				"pretrained", "pre-trained", "checkpoint", "weights",
				"model zoo", "download",
			},
		},
		Promises: []PromisePat{
			{Pattern: `code\s+(?:will\s+be|to\s+be)\s+released`, Label: "code will be released"},
			{Pattern: `weights?\s+(?:will\s+be|to\s+be)\s+released`, Label: "weights will be released"},
			{Pattern: `models?\s+(?:will\s+be|to\s+be)\s+released`, Label: "model will be released"},
			{Pattern: `checkpoints?\s+(?:will\s+be|to\s+be)\s+released`, Label: "checkpoint will be released"},
			{Pattern: `(?:weights?|models?|checkpoints?|code)\s*(?::|is|are)?\s*coming\s+soon`, Label: "coming soon"},
			{Pattern: `coming\s+soon\s*(?::|\.|!)`, Label: "coming soon"},
			{Pattern: `release\s+(?:coming\s+)?soon`, Label: "release soon"},
			{Pattern: `stay\s+tuned`, Label: "stay tuned"},
			{Pattern: `\[\s\]\s*[^\n]*?(?:models?|weights?|checkpoints?|pretrained)`, Label: "unchecked: model/weights"},
			{Pattern: `\[\s\]\s*[^\n]*?(?:release|download)`, Label: "unchecked: release/download"},
			{Pattern: `(?:weights?|models?|checkpoints?)\s*(?::|is|are)?\s*TBD`, Label: "TBD"},
			{Pattern: `(?:weights?|models?)\s*(?::|is|are)?\s*(?:WIP|work\s+in\s+progress)`, Label: "WIP"},
			{Pattern: `(?:weights?|models?|code)\s+(?:under|in)\s+preparation`, Label: "under preparation"},
		},
		Venues: VenuesConfig{
			Patterns: []VenuePat{
				{Venue: "CVPR", Keywords: []string{"CVPR"}},
				{Venue: "ICCV", Keywords: []string{"ICCV"}},
				{Venue: "ECCV", Keywords: []string{"ECCV"}},
				{Venue: "NeurIPS", Keywords: []string{"NeurIPS", "NIPS"}},
				{Venue: "ICLR", Keywords: []string{"ICLR"}},
				{Venue: "ICML", Keywords: []string{"ICML"}},
				{Venue: "AAAI", Keywords: []string{"AAAI"}},
				{Venue: "IJCAI", Keywords: []string{"IJCAI"}},
				{Venue: "ACM MM", Keywords: []string{"ACM MM", "ACMMM"}},
				{Venue: "TPAMI", Keywords: []string{"TPAMI", "T-PAMI"}},
				{Venue: "TIP", Keywords: []string{"IEEE TIP"}},
				{Venue: "MICCAI", Keywords: []string{"MICCAI"}},
			},
			ArxivPattern: `arxiv\.org/(?:abs|pdf)/(\d{4}\.\d{4,5})`,
		},
		Cache: CacheConfig{
			Path:    "",
			TTLDays: 3,
		},
	}
}
