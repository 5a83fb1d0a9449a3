package history

import (
	"atelier/internal/entity"
	"sort"
	"strings"
)

// 历史投影：对编排器持有的内存历史做过滤/排序/分组，
// 只读，不产生任何状态。

// DayGroup 是按自然日分桶后的一组记录。
type DayGroup struct {
	Day     string                    `json:"day"` // "2006-01-02"（本地时区）
	Records []entity.GenerationRecord `json:"records"`
}

// SortNewestFirst 返回按时间倒序的副本，时间相同时按 ID 保持稳定。
func SortNewestFirst(records []entity.GenerationRecord) []entity.GenerationRecord {
	out := make([]entity.GenerationRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// FilterByStatus 按状态过滤；status 为空时原样返回副本。
func FilterByStatus(records []entity.GenerationRecord, status entity.RecordStatus) []entity.GenerationRecord {
	out := make([]entity.GenerationRecord, 0, len(records))
	for _, rec := range records {
		if status != "" && rec.Status != status {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// SearchPrompt 返回提示词包含 query 的记录（大小写不敏感）。
// 匹配在剥离宽高比注解后的提示词上进行。
func SearchPrompt(records []entity.GenerationRecord, query string) []entity.GenerationRecord {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		out := make([]entity.GenerationRecord, len(records))
		copy(out, records)
		return out
	}

	out := make([]entity.GenerationRecord, 0, len(records))
	for _, rec := range records {
		prompt := strings.ToLower(entity.StripPromptAnnotation(rec.Prompt))
		if strings.Contains(prompt, needle) {
			out = append(out, rec)
		}
	}
	return out
}

// GroupByDay 按本地日期分桶，桶按日期倒序，桶内按时间倒序。
func GroupByDay(records []entity.GenerationRecord) []DayGroup {
	sorted := SortNewestFirst(records)

	var groups []DayGroup
	index := make(map[string]int)
	for _, rec := range sorted {
		day := rec.Timestamp.Local().Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			i = len(groups)
			index[day] = i
			groups = append(groups, DayGroup{Day: day})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}
	return groups
}
