package history

import (
	"atelier/internal/entity"
	"testing"
	"time"
)

func sampleRecords() []entity.GenerationRecord {
	base := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)
	return []entity.GenerationRecord{
		{ID: "g1-1", GroupID: "g1", Prompt: "海边的灯塔", Status: entity.StatusSuccess, Timestamp: base.Add(-48 * time.Hour)},
		{ID: "g2-1", GroupID: "g2", Prompt: "森林小屋 (aspect ratio: 16:9)", Status: entity.StatusError, Timestamp: base.Add(-time.Hour)},
		{ID: "g3-1", GroupID: "g3", Prompt: "城市夜景", Status: entity.StatusSuccess, Timestamp: base},
		{ID: "g3-2", GroupID: "g3", Prompt: "城市夜景", Status: entity.StatusLoading, Timestamp: base},
	}
}

func TestSortNewestFirst(t *testing.T) {
	sorted := SortNewestFirst(sampleRecords())
	if sorted[0].ID != "g3-1" || sorted[1].ID != "g3-2" {
		t.Errorf("同一时间应按 ID 稳定排序: %s, %s", sorted[0].ID, sorted[1].ID)
	}
	if sorted[len(sorted)-1].ID != "g1-1" {
		t.Errorf("最旧的记录应排在最后: %s", sorted[len(sorted)-1].ID)
	}
}

func TestFilterByStatus(t *testing.T) {
	records := sampleRecords()

	errored := FilterByStatus(records, entity.StatusError)
	if len(errored) != 1 || errored[0].ID != "g2-1" {
		t.Errorf("FilterByStatus(error): %+v", errored)
	}

	all := FilterByStatus(records, "")
	if len(all) != len(records) {
		t.Errorf("空状态应返回全部记录: %d", len(all))
	}
}

func TestSearchPrompt(t *testing.T) {
	records := sampleRecords()

	matched := SearchPrompt(records, "森林")
	if len(matched) != 1 || matched[0].ID != "g2-1" {
		t.Errorf("SearchPrompt(森林): %+v", matched)
	}

	// 搜索作用在剥离注解后的提示词上
	if got := SearchPrompt(records, "aspect ratio"); len(got) != 0 {
		t.Errorf("注解内容不应参与搜索: %+v", got)
	}

	if got := SearchPrompt(records, ""); len(got) != len(records) {
		t.Errorf("空查询应返回全部记录: %d", len(got))
	}
}

func TestGroupByDay(t *testing.T) {
	groups := GroupByDay(sampleRecords())
	if len(groups) != 2 {
		t.Fatalf("expected 2 day buckets, got %d", len(groups))
	}
	if groups[0].Day != "2025-06-10" {
		t.Errorf("最近的日期应排在最前: %s", groups[0].Day)
	}
	if len(groups[0].Records) != 3 {
		t.Errorf("2025-06-10 应有 3 条记录: %d", len(groups[0].Records))
	}
	if groups[1].Day != "2025-06-08" || len(groups[1].Records) != 1 {
		t.Errorf("第二个桶: %s, %d 条", groups[1].Day, len(groups[1].Records))
	}
}
