package table

import "strings"

// 领域关键词，列标签命中任意一个即判定为该领域
var (
	retailKeywords    = []string{"sales", "revenue", "profit", "cost", "qty"}
	educationKeywords = []string{"student", "marks", "grade", "attendance", "subject"}
	hrKeywords        = []string{"employee", "salary", "dept", "hiring"}
)

// DetectDomainContext 根据列标签推断数据领域，返回引导分析引擎的上下文提示
// 纯函数，大小写不敏感的子串匹配，按固定顺序取首个命中领域
func DetectDomainContext(columns []string) string {
	joined := strings.ToLower(strings.Join(columns, " "))

	if containsAny(joined, retailKeywords) {
		return "Retail/Sales Context. Focus on: Revenue trends, Top selling products, Profit margins."
	}
	if containsAny(joined, educationKeywords) {
		return "Education Context. Focus on: Student performance, Pass/Fail rates, Subject averages."
	}
	if containsAny(joined, hrKeywords) {
		return "HR Context. Focus on: Headcount, Salary distribution, Attrition."
	}
	return "General Data Analysis Context. Focus on patterns and outliers."
}

// DetectWideFormatDates 判断是否为宽格式时间序列（日期做列名而非日期列）
// 可解析为日期的列标签占比超过 0.3 即判定为宽格式
func DetectWideFormatDates(columns []string) bool {
	total := len(columns)
	if total < 2 {
		return false
	}

	dateCols := 0
	for _, col := range columns {
		if _, ok := ParseTimestamp(col); ok {
			dateCols++
		}
	}
	return float64(dateCols)/float64(total) > 0.3
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
