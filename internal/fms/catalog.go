// Package fms holds the movement catalog (seven fundamental movement skills and the
// supplementary SMC measures) and the score comparison between two assessments.
package fms

import "fmt"

// MinScore and MaxScore bound every FMS score.
const (
	MinScore = 1
	MaxScore = 5
)

// Category describes one of the seven fundamental movements.
type Category struct {
	Key          string `json:"key"`
	Label        string `json:"label"`
	EnglishLabel string `json:"english_label"`
	Description  string `json:"description"`
}

// Categories lists the movements in radar-chart order.
var Categories = []Category{
	{Key: "run", Label: "走る", EnglishLabel: "Run", Description: "基本的な走行動作"},
	{Key: "balance_beam", Label: "平均台移動", EnglishLabel: "Balance beam", Description: "バランスを保ちながらの移動"},
	{Key: "jump", Label: "跳ぶ", EnglishLabel: "Jump", Description: "垂直・水平ジャンプ"},
	{Key: "throw", Label: "投げる", EnglishLabel: "Throw", Description: "オーバーハンドスロー"},
	{Key: "catch", Label: "捕る", EnglishLabel: "Catch", Description: "ボールキャッチング"},
	{Key: "dribble", Label: "つく", EnglishLabel: "Dribble", Description: "ボールドリブル"},
	{Key: "roll", Label: "転がる", EnglishLabel: "Roll", Description: "前転・後転"},
}

// Stage is the attainment level a score stands for.
type Stage struct {
	Score              int    `json:"score"`
	Description        string `json:"description"`
	EnglishDescription string `json:"english_description"`
}

var stages = [MaxScore]Stage{
	{1, "初期段階：動作の基本形がまだ確立されていない", "Initial: the basic pattern is not yet established"},
	{2, "発展段階：動作の基本形が現れ始めている", "Emerging: the basic pattern is beginning to appear"},
	{3, "成熟段階：動作の基本形が確立されている", "Mature: the basic pattern is established"},
	{4, "洗練段階：動作が滑らかで効率的になっている", "Refined: the movement is smooth and efficient"},
	{5, "習熟段階：動作が自動化され、応用が可能", "Proficient: the movement is automatic and adaptable"},
}

// Stages returns the five stage descriptions in score order.
func Stages() []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages[:])
	return out
}

// StageFor returns the stage of score. ok is false outside 1-5.
func StageFor(score int) (Stage, bool) {
	if score < MinScore || score > MaxScore {
		return Stage{}, false
	}
	return stages[score-1], true
}

// Lookup finds a category by key.
func Lookup(key string) (Category, bool) {
	for _, c := range Categories {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}

// Measure describes one supplementary SMC measure.
type Measure struct {
	Key          string  `json:"key"`
	Label        string  `json:"label"`
	EnglishLabel string  `json:"english_label"`
	Unit         string  `json:"unit"`
	EnglishUnit  string  `json:"english_unit"`
	Description  string  `json:"description"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
}

// SMC measure keys.
const (
	ShuttleRun     = "shuttle_run_sec"
	PaperBallThrow = "paper_ball_throw_m"
)

// Measures lists the SMC measures in display order.
var Measures = []Measure{
	{
		Key:          ShuttleRun,
		Label:        "10m折り返し走（合計40m）",
		EnglishLabel: "10m shuttle run (40m total)",
		Unit:         "秒",
		EnglishUnit:  "s",
		Description:  "10mを2往復する合計40mのシャトルラン",
		Min:          5.0,
		Max:          60.0,
	},
	{
		Key:          PaperBallThrow,
		Label:        "紙ボール投げ",
		EnglishLabel: "Paper ball throw",
		Unit:         "m",
		EnglishUnit:  "m",
		Description:  "A4用紙5枚で作成した紙ボールの遠投距離",
		Min:          0.1,
		Max:          30.0,
	},
}

// CheckMeasure validates value against the range of the measure named key.
func CheckMeasure(key string, value float64) error {
	for _, m := range Measures {
		if m.Key != key {
			continue
		}
		if value < m.Min || value > m.Max {
			return fmt.Errorf("%s must be between %.1f and %.1f", key, m.Min, m.Max)
		}
		return nil
	}
	return fmt.Errorf("unknown measure %q", key)
}
