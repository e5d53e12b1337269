package config

// Application constants
const (
	AppName     = "Salary Survey Analysis"
	AppVersion  = "1.0.0"
	ServiceName = "salary-survey"

	// Directories (relative to the base directory)
	DefaultDataDir    = "data"
	DefaultTablesDir  = "tables"
	DefaultFiguresDir = "figures"
	DefaultModelsDir  = "models"
	DefaultReportsDir = "reports"
	DefaultLogsDir    = "logs"

	// Files
	DefaultRawFile      = "data/raw_data.csv"
	DefaultCleanedFile  = "data/cleaned_data.csv"
	CleaningReportFile  = "cleaning_report.json"
	ResultsJSONFile     = "results.json"
	ResultsWorkbookFile = "analysis_results.xlsx"
	ReportFile          = "salary_report.tex"
	ModelExtension      = ".model"

	// Table outputs
	StatisticalSummaryCSV = "statistical_results_summary.csv"
	AdvancedAnalysisCSV   = "advanced_analysis_results.csv"
	TechnologyROICSV      = "technology_roi.csv"
	RoleSalariesCSV       = "role_salaries.csv"
	CareerProgressionCSV  = "career_progression.csv"
	ModelComparisonCSV    = "model_comparison.csv"
	FeatureImportanceCSV  = "feature_importance.csv"
	ClustersCSV           = "clusters.csv"
	MLResultsFile         = "ml_results.json"
)
