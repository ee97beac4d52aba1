package importer

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexanderramin/handbook/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tabularSample = `[
  {
    "1단계": "민원실",
    "2단계": "민원접수",
    "3단계": {"법적근거": ["민원처리법", "행정절차법"], "업무정의": "민원을 접수하고 배분하는 업무"},
    "4단계": [
      {"프로세스": "방문 접수", "5단계": {"단계설명": "창구 방문 민원 접수", "주요내용": ["신분 확인", "신청서 접수"], "산출물": ["접수증"], "참고자료": ["민원편람"]}},
      {"프로세스": "온라인 접수", "5단계": {"단계설명": "전자 민원 접수", "주요내용": ["전자 신청 확인"], "산출물": [], "참고자료": []}}
    ]
  },
  {
    "1단계": "민원실",
    "2단계": "민원접수",
    "3단계": {"법적근거": ["다른 법"], "업무정의": "무시되는 정의"},
    "4단계": [
      {"프로세스": "우편 접수", "5단계": {"단계설명": "우편 민원", "주요내용": [], "산출물": [], "참고자료": []}}
    ]
  },
  {
    "1단계": "재무과",
    "2단계": "예산",
    "3단계": {"법적근거": [], "업무정의": "예산 편성"},
    "4단계": []
  }
]`

const standardSample = `{
  "departments": [{"id": "d1", "name": "민원실", "description": "", "order": 2, "createdAt": "2024-01-01T00:00:00Z", "updatedAt": "2024-01-02T00:00:00Z"}],
  "categories": [{"id": "c1", "name": "접수", "departmentId": "d1", "description": ""}],
  "processes": [{"id": "p1", "title": "민원신청", "categoryId": "c1", "description": "", "content": "", "steps": [{"stepNumber": 1, "title": "작성", "description": ""}], "legalBasis": [], "outputs": [], "references": [], "tags": ["민원"]}]
}`

func TestDecode_Tabular(t *testing.T) {
	doc, err := Decode([]byte(tabularSample))
	require.NoError(t, err)
	assert.Equal(t, ShapeTabular, doc.Shape)
	require.Len(t, doc.Tabular, 3)
	assert.Equal(t, "민원실", doc.Tabular[0].Department)
	assert.Equal(t, []string{"민원처리법", "행정절차법"}, doc.Tabular[0].Definition.LegalBasis)
	assert.Equal(t, "방문 접수", doc.Tabular[0].Processes[0].Title)
	assert.Equal(t, []string{"접수증"}, doc.Tabular[0].Processes[0].Detail.Outputs)
}

func TestDecode_Standard(t *testing.T) {
	doc, err := Decode([]byte(standardSample))
	require.NoError(t, err)
	assert.Equal(t, ShapeStandard, doc.Shape)
	require.NotNil(t, doc.Standard)
	require.Len(t, doc.Standard.Departments, 1)
	require.NotNil(t, doc.Standard.Departments[0].Order)
	assert.Equal(t, 2, *doc.Standard.Departments[0].Order)
	assert.Nil(t, doc.Standard.Categories[0].Order)
}

func TestDecode_StripsBOMAndWhitespace(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("\n  []  \n")...)
	doc, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, ShapeTabular, doc.Shape)
	assert.Empty(t, doc.Tabular)
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "empty"},
		{"not json", "{departments", "not valid JSON"},
		{"scalar", `"text"`, "object or array"},
		{"missing arrays", `{"departments": []}`, "categories is required"},
		{"non array", `{"departments": {}, "categories": [], "processes": []}`, "departments must be an array"},
		{"null array", `{"departments": null, "categories": [], "processes": []}`, "departments must be an array"},
		{"bad tabular", `[{"4단계": "oops"}]`, "parsing tabular"},
		{"bad timestamp", `{"departments": [{"id": "d", "name": "n", "createdAt": "yesterday"}], "categories": [], "processes": []}`, "parsing standard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDocumentToAggregate_ValidatesBeforeConverting(t *testing.T) {
	doc, err := Decode([]byte(`{"departments": [], "categories": [{"id": "c1", "name": "x", "departmentId": "ghost"}], "processes": []}`))
	require.NoError(t, err)

	_, err = doc.ToAggregate(time.Now(), func() string { return "id" })
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Contains(t, err.Error(), "ghost")
}

func TestDocumentToAggregate_UnknownShape(t *testing.T) {
	_, err := Document{}.ToAggregate(time.Now(), nil)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(tabularSample), 0644))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ShapeTabular, doc.Shape)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestEncode_WritesStandardShape(t *testing.T) {
	exportedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	data, err := Encode(domain.Export{ExportedAt: exportedAt})
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `[]`, string(raw["departments"]), "nil collections encode as empty arrays")
	assert.JSONEq(t, `[]`, string(raw["processes"]))
	assert.JSONEq(t, `1`, string(raw["schemaVersion"]))
	assert.JSONEq(t, `"2024-05-01T12:00:00Z"`, string(raw["exportedAt"]))

	// The export is itself importable.
	doc, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, ShapeStandard, doc.Shape)
}

func TestEncodeAggregate_Compact(t *testing.T) {
	data, err := EncodeAggregate(domain.Aggregate{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"schemaVersion":1,"departments":[],"categories":[],"processes":[]}`, string(data))
}

func TestShapeString(t *testing.T) {
	assert.Equal(t, "standard", ShapeStandard.String())
	assert.Equal(t, "tabular", ShapeTabular.String())
	assert.Equal(t, "unknown", Shape(0).String())
}
