package report

import (
	"math"
	"strconv"
	"strings"
	"text/template"
)

var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
	`<`, `\textless{}`,
	`>`, `\textgreater{}`,
	`²`, `$^2$`,
	`→`, `$\rightarrow$`,
)

// Escape quotes LaTeX special characters in free text
func Escape(s string) string {
	return latexEscaper.Replace(s)
}

// formatP prints p-values with four decimals, or as a bound when tiny
func formatP(p float64) string {
	if math.IsNaN(p) {
		return "n/a"
	}
	if p < 0.001 {
		return "$<$ 0.001"
	}
	return strconv.FormatFloat(p, 'f', 4, 64)
}

// formatInt groups thousands with commas
func formatInt(n int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		return "-" + formatInt(-n)
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}

func formatFloat(decimals int, v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

func significance(ok bool) string {
	if ok {
		return "Significant"
	}
	return "Not significant"
}

var funcs = template.FuncMap{
	"tex": Escape,
	"p":   formatP,
	"int": formatInt,
	"f1":  func(v float64) string { return formatFloat(1, v) },
	"f2":  func(v float64) string { return formatFloat(2, v) },
	"f3":  func(v float64) string { return formatFloat(3, v) },
	"sig": significance,
	"sq":  func(v float64) float64 { return v * v },
	"mul": func(a, b float64) float64 { return a * b },
	"mark": func(ok bool) string {
		if ok {
			return "Yes"
		}
		return "No"
	},
}

var reportTemplate = template.Must(template.New("report").Delims("[[", "]]").Funcs(funcs).Parse(reportTeX))

const reportTeX = `\documentclass[12pt,a4paper]{article}
\usepackage[utf8]{inputenc}
\usepackage[english]{babel}
\usepackage{amsmath}
\usepackage{amssymb}
\usepackage{graphicx}
\usepackage{booktabs}
\usepackage{array}
\usepackage{longtable}
\usepackage{float}
\usepackage{hyperref}
\usepackage{geometry}

\geometry{margin=2.5cm}

\title{\textbf{[[ tex .Title ]]}\\[0.5em]\large\textit{Which Technologies Pay More? How Do Career Levels and Roles Affect Salaries?}}
\date{[[ .Generated.Format "2 January 2006" ]]}

\begin{document}

\maketitle

\begin{abstract}
This report analyses the self-reported compensation of [[ int .Key.Participants ]] software professionals.
The mean salary is [[ f1 .Key.SalaryMean ]] thousand TL (median [[ f1 .Key.SalaryMedian ]], standard deviation [[ f1 .Key.SalaryStd ]]).
[[- with .Remote ]] Remote workers earn [[ f1 .MeanDiff ]] thousand TL more than office workers (p = [[ p .P ]]).[[ end ]]
[[- with .Europe ]] Companies located in Europe pay [[ f1 .MeanDiff ]] thousand TL more than companies in Türkiye (p = [[ p .P ]]).[[ end ]]
[[- with .Gender ]] The difference between male and female respondents is [[ f1 .MeanDiff ]] thousand TL (p = [[ p .P ]]).[[ end ]]
Group differences are tested at $\alpha = [[ f2 .Alpha ]]$.
\end{abstract}

\section{Executive Summary}

\begin{itemize}
    \item \textbf{Participants:} [[ int .Key.Participants ]] respondents, [[ f1 .Key.MalePct ]]\% male and [[ f1 .Key.FemalePct ]]\% female; [[ f1 .Key.ManagerPct ]]\% work as managers.
    \item \textbf{Salary range:} [[ f1 .Key.SalaryMin ]] to [[ f1 .Key.SalaryMax ]] thousand TL.
[[- range .Tests ]]
    \item \textbf{[[ tex .Name ]]:} [[ tex .GroupA ]] [[ f1 .MeanA ]] vs [[ tex .GroupB ]] [[ f1 .MeanB ]] thousand TL, difference [[ f1 .MeanDiff ]] (p = [[ p .P ]], Cohen's d = [[ f2 .CohensD ]], [[ sig .Significant ]]).
[[- end ]]
[[- with .TopROI ]][[ with index . 0 ]]
    \item \textbf{Technology impact:} [[ tex .Technology ]] shows the highest salary premium at [[ f1 .ROI ]] thousand TL ([[ f1 .ROIPct ]]\%).
[[- end ]][[ end ]]
\end{itemize}

\section{Methodology}

\subsection{Data Processing}
\begin{itemize}
    \item Salary ranges were converted to their midpoints and outliers clipped with the IQR and z-score rules.
    \item Categorical answers were one-hot encoded; multi-select technology answers were normalised and expanded into indicator columns.
    \item Seniority and experience answers were mapped to ordinal codes.
\end{itemize}

\subsection{Statistical Methods}
\begin{itemize}
    \item Welch's t-test for two-group comparisons, with Cohen's d and a 95\% confidence interval of the mean difference.
    \item One-way ANOVA with eta squared and Bonferroni-corrected pairwise Welch tests.
    \item Pearson and Spearman correlations; chi-square tests of independence for participation patterns.
\end{itemize}

\section{Which Technologies Pay More? Salary ROI Analysis}

ROI is the difference between the mean salary of users and non-users of a technology.
[[- if .TopROI ]]

\begin{table}[H]
\centering
\begin{tabular}{llrrrr}
\toprule
\textbf{Technology} & \textbf{Family} & \textbf{Users} & \textbf{ROI (thousand TL)} & \textbf{User Avg} & \textbf{\% Increase} \\
\midrule
[[- range .TopROI ]]
[[ tex .Technology ]] & [[ tex .Category ]] & [[ int .Users ]] & [[ f1 .ROI ]] & [[ f1 .UserMean ]] & [[ f1 .ROIPct ]]\% \\
[[- end ]]
\bottomrule
\end{tabular}
\caption{Top technologies by salary ROI (only differences above [[ f1 .ROIThreshold ]]\% of the user mean)}
\end{table}
[[- else ]]

No technology passed the ROI filter.
[[- end ]]

[[ .Figure "barplot_programming_roi" ]][[ .Figure "barplot_frontend_roi" ]][[ .Figure "barplot_tools_roi" ]]
\section{How Do Career Levels and Roles Affect Salaries?}

\subsection{Salary by Career Level}
[[ .Figure "boxplot_seniority" ]]
[[- if .Career.Levels ]]
\begin{table}[H]
\centering
\begin{tabular}{lrrrr}
\toprule
\textbf{Career Level} & \textbf{Count} & \textbf{Mean} & \textbf{Median} & \textbf{Std} \\
\midrule
[[- range .Career.Levels ]]
[[ tex .Label ]] & [[ int .Stats.Count ]] & [[ f1 .Stats.Mean ]] & [[ f1 .Stats.Median ]] & [[ f1 .Stats.Std ]] \\
[[- end ]]
\bottomrule
\end{tabular}
\caption{Salary by career level}
\end{table}
[[- end ]]
[[- with .Career.Transitions ]]

\begin{itemize}
[[- range . ]]
    \item \textbf{[[ tex .From ]] $\rightarrow$ [[ tex .To ]]:} [[ f1 .Increase ]] thousand TL ([[ f1 .IncreasePct ]]\%)
[[- end ]]
\end{itemize}
[[- end ]]
[[- with .Career.ANOVA ]]

Career level explains [[ f1 (mul .EtaSquared 100) ]]\% of salary variance (F = [[ f2 .F ]], p = [[ p .P ]]).
[[- end ]]

\subsection{Role-Based Salary Analysis}
[[ .Figure "barplot_role_salaries" ]]
[[- if .Roles ]]
\begin{table}[H]
\centering
\begin{tabular}{lrr}
\toprule
\textbf{Role} & \textbf{Count} & \textbf{Mean Salary} \\
\midrule
[[- range .Roles ]]
[[ tex .Role ]] & [[ int .Count ]] & [[ f1 .Mean ]] \\
[[- end ]]
\bottomrule
\end{tabular}
\caption{Average salary by role}
\end{table}
[[- end ]]

[[ .Figure "sankey_career_level_role" ]]
\section{Remote vs Office: Which Work Model Pays More?}
[[ .Figure "boxplot_work_mode" ]]
[[- with .Remote ]]
\begin{table}[H]
\centering
\begin{tabular}{lrrr}
\toprule
\textbf{Work Model} & \textbf{Count} & \textbf{Mean Salary} & \textbf{Difference} \\
\midrule
Remote & [[ int .NA ]] & [[ f1 .MeanA ]] & \\
Office & [[ int .NB ]] & [[ f1 .MeanB ]] & [[ f1 .MeanDiff ]] \\
\midrule
\textbf{Effect Size} & & & \textbf{Cohen's d = [[ f3 .CohensD ]]} \\
\bottomrule
\end{tabular}
\caption{Remote vs office salary comparison}
\end{table}

\textbf{Statistical Significance:} [[ sig .Significant ]] (p = [[ p .P ]])
[[- else ]]
The remote and office groups are too small to compare.
[[- end ]]

\section{Geographical Impact: Where Do Companies Pay More?}
[[ .Figure "boxplot_company_location" ]]
[[- with .Europe ]]
\begin{table}[H]
\centering
\begin{tabular}{lrrr}
\toprule
\textbf{Location} & \textbf{Count} & \textbf{Mean Salary} & \textbf{Difference} \\
\midrule
Europe & [[ int .NA ]] & [[ f1 .MeanA ]] & \\
Türkiye & [[ int .NB ]] & [[ f1 .MeanB ]] & [[ f1 .MeanDiff ]] \\
\midrule
\textbf{Effect Size} & & & \textbf{Cohen's d = [[ f3 .CohensD ]]} \\
\bottomrule
\end{tabular}
\caption{Salary by company location}
\end{table}

\textbf{Statistical Significance:} [[ sig .Significant ]] (p = [[ p .P ]])
[[- end ]]

\textbf{Note:} [[ tex .LocationNote ]]

\section{Gender and Technology: Are There Differences?}
[[ .Figure "boxplot_gender" ]]
[[- with .Gender ]]
\begin{table}[H]
\centering
\begin{tabular}{lrrr}
\toprule
\textbf{Gender} & \textbf{Count} & \textbf{Mean Salary} & \textbf{Percentage} \\
\midrule
Male & [[ int .NA ]] & [[ f1 .MeanA ]] & [[ f1 $.Key.MalePct ]]\% \\
Female & [[ int .NB ]] & [[ f1 .MeanB ]] & [[ f1 $.Key.FemalePct ]]\% \\
\midrule
\textbf{Difference} & & \textbf{[[ f1 .MeanDiff ]]} & \\
\textbf{Effect Size} & & \textbf{Cohen's d = [[ f3 .CohensD ]]} & \\
\bottomrule
\end{tabular}
\caption{Salary by gender}
\end{table}

\textbf{Statistical Significance:} [[ sig .Significant ]] (p = [[ p .P ]])
[[- end ]]

[[ .Figure "barplot_gender_programming" ]][[ .Figure "barplot_gender_frontend" ]]
\section{Experience and Salary}
[[ .Figure "scatter_experience_salary" ]]
[[- with .Experience ]]
\begin{itemize}
    \item \textbf{Correlation coefficient:} r = [[ f3 .Pearson.R ]] (p = [[ p .Pearson.P ]]), Spearman $\rho$ = [[ f3 .Spearman.R ]]
    \item \textbf{Explained variance:} R$^2$ = [[ f3 (sq .Pearson.R) ]]
    \item \textbf{Strength:} [[ tex .Interpretation ]]
\end{itemize}
[[- end ]]

[[ .Figure "barplot_tech_correlation" ]]
\section{Survey Participation Patterns}
[[ .Figure "barplot_hourly_avg_salary" ]][[ .Figure "barplot_hourly_participants" ]][[ .Figure "heatmap_roles_by_hour" ]]
\section{Employment Type}
[[ .Figure "boxplot_employment_type" ]]
\section{Statistical Tests}
[[- if .Tests ]]

\begin{table}[H]
\centering
\begin{tabular}{lrrrl}
\toprule
\textbf{Test} & \textbf{Difference} & \textbf{p-value} & \textbf{Cohen's d} & \textbf{Significant} \\
\midrule
[[- range .Tests ]]
[[ tex .Name ]] & [[ f1 .MeanDiff ]] & [[ p .P ]] & [[ f3 .CohensD ]] & [[ mark .Significant ]] \\
[[- end ]]
\bottomrule
\end{tabular}
\caption{Welch t-tests}
\end{table}
[[- end ]]
[[- if .Comparisons ]]

\begin{table}[H]
\centering
\begin{tabular}{lrrrl}
\toprule
\textbf{Factor} & \textbf{F} & \textbf{p-value} & \textbf{$\eta^2$} & \textbf{Effect} \\
\midrule
[[- range .Comparisons ]]
[[ tex .Name ]] & [[ f2 .ANOVA.F ]] & [[ p .ANOVA.P ]] & [[ f3 .ANOVA.EtaSquared ]] & [[ tex .Interpretation ]] \\
[[- end ]]
\bottomrule
\end{tabular}
\caption{One-way ANOVA}
\end{table}
[[- end ]]
[[- with .ML ]]

\section{Salary Prediction Models}

Models were trained on [[ int .TrainSize ]] respondents and evaluated on [[ int .TestSize ]] held-out respondents.

\begin{table}[H]
\centering
\begin{tabular}{lrrrr}
\toprule
\textbf{Model} & \textbf{Test R$^2$} & \textbf{MAE} & \textbf{RMSE} & \textbf{CV R$^2$} \\
\midrule
[[- range .Models ]]
[[ tex .Name ]] & [[ f3 .Test.R2 ]] & [[ f2 .Test.MAE ]] & [[ f2 .Test.RMSE ]] & [[ f3 .CV.R2Mean ]] $\pm$ [[ f3 .CV.R2Std ]] \\
[[- end ]]
\bottomrule
\end{tabular}
\caption{Model comparison}
\end{table}

The best model is \texttt{[[ tex .Best ]]}.
[[ $.Figure "barplot_model_comparison" ]]
[[- with .Clusters ]]
\subsection{Developer Profiles}
\begin{table}[H]
\centering
\begin{tabular}{rrrrrr}
\toprule
\textbf{Cluster} & \textbf{Size} & \textbf{Share} & \textbf{Avg Salary} & \textbf{Avg Experience} & \textbf{React} \\
\midrule
[[- range .Summary ]]
[[ .Cluster ]] & [[ int .Size ]] & [[ f1 .Percentage ]]\% & [[ f1 .AvgSalary ]] & [[ f1 .AvgExperience ]] & [[ f1 .ReactPct ]]\% \\
[[- end ]]
\bottomrule
\end{tabular}
\caption{k-means clusters}
\end{table}
[[ $.Figure "scatter_clusters" ]]
[[- end ]]
[[- end ]]

\section{Limitations}
\begin{itemize}
    \item Salaries are self-reported and may carry reporting bias.
    \item The sample may not represent the whole industry.
    \item Location is estimated from company information.
    \item The cross-sectional design limits causal inference.
\end{itemize}

\end{document}
`
