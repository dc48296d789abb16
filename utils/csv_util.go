package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gitlab.grandhoo.com/rock/rock_seco/dataset"
	"gitlab.grandhoo.com/rock/rock_seco/utils/set"
)

var (
	ErrOpenCsv = errors.New("open csv failed")
	ErrReadCsv = errors.New("read csv failed")
)

// 列类型
const (
	NominalType = "nominal"
	NumericType = "numeric"
)

// CsvInfo 描述如何把一个 CSV 转成样本集. 第一行是表头.
type CsvInfo struct {
	Path       string
	ColumnType map[string]string // 未指定的列: 所有非缺失值都能解析为数值时为 numeric, 否则 nominal
	Class      string            // 单标签的类别列
	Labels     []string          // 多标签的标签列, 非空时忽略 Class
	Weight     string            // 可选的权重列, 不作为属性
}

// IsMissingValue 空串和 ? 视为缺失
func IsMissingValue(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "?"
}

func GetCsvData(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenCsv, err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	preData, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadCsv, err)
	}
	return preData, nil
}

func LoadExamples(info *CsvInfo) (*dataset.Examples, error) {
	preData, err := GetCsvData(info.Path)
	if err != nil {
		return nil, err
	}
	return ParseExamples(preData, info)
}

// ParseExamples builds the attributes from the header and the column values,
// then adds one example per row. Nominal domains are sorted.
func ParseExamples(preData [][]string, info *CsvInfo) (*dataset.Examples, error) {
	if len(preData) == 0 {
		return nil, fmt.Errorf("%w: empty csv", ErrReadCsv)
	}
	header := preData[0]
	rows := preData[1:]
	weightColumn := -1
	var attributes []*dataset.Attribute
	var columns []int // attribute -> csv column
	index := make(map[string]int)
	for i, name := range header {
		name = strings.TrimSpace(name)
		if info.Weight != "" && name == info.Weight {
			weightColumn = i
			continue
		}
		attr, err := columnAttribute(name, i, rows, info.ColumnType[name])
		if err != nil {
			return nil, err
		}
		index[name] = len(attributes)
		attributes = append(attributes, attr)
		columns = append(columns, i)
	}
	if info.Weight != "" && weightColumn < 0 {
		return nil, fmt.Errorf("%w: weight column %s not found", ErrReadCsv, info.Weight)
	}

	var examples *dataset.Examples
	if len(info.Labels) > 0 {
		labels := make([]int, 0, len(info.Labels))
		for _, name := range info.Labels {
			i, ok := index[name]
			if !ok {
				return nil, fmt.Errorf("%w: label column %s not found", ErrReadCsv, name)
			}
			labels = append(labels, i)
		}
		examples = dataset.NewMultiLabel(attributes, labels)
	} else {
		classIndex := len(attributes) - 1
		if info.Class != "" {
			i, ok := index[info.Class]
			if !ok {
				return nil, fmt.Errorf("%w: class column %s not found", ErrReadCsv, info.Class)
			}
			classIndex = i
		}
		examples = dataset.New(attributes, classIndex)
	}

	for r, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("%w: row %d has %d columns, header has %d", ErrReadCsv, r+1, len(row), len(header))
		}
		values := make([]float64, len(attributes))
		for a, attr := range attributes {
			v, err := convert(attr, row[columns[a]])
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: %v", ErrReadCsv, r+1, err)
			}
			values[a] = v
		}
		weight := 1.0
		if weightColumn >= 0 {
			w, err := strconv.ParseFloat(strings.TrimSpace(row[weightColumn]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d weight: %v", ErrReadCsv, r+1, err)
			}
			weight = w
		}
		if err := examples.Add(values, weight); err != nil {
			return nil, err
		}
	}
	return examples, nil
}

func columnAttribute(name string, column int, rows [][]string, columnType string) (*dataset.Attribute, error) {
	distinct := set.New[string]()
	numeric := true
	for _, row := range rows {
		if column >= len(row) || IsMissingValue(row[column]) {
			continue
		}
		s := strings.TrimSpace(row[column])
		distinct.Put(s)
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			numeric = false
		}
	}
	switch columnType {
	case "":
		if numeric && distinct.Len() > 0 {
			return dataset.NewNumeric(name), nil
		}
		return dataset.NewNominal(name, set.Sorted(distinct)...), nil
	case NumericType:
		return dataset.NewNumeric(name), nil
	case NominalType:
		return dataset.NewNominal(name, set.Sorted(distinct)...), nil
	}
	return nil, fmt.Errorf("%w: column %s has type %s", dataset.ErrUnsupportedAttribute, name, columnType)
}

// convert 根据属性类型把字符串转成内部取值
func convert(attr *dataset.Attribute, s string) (float64, error) {
	if IsMissingValue(s) {
		return dataset.Missing, nil
	}
	s = strings.TrimSpace(s)
	if attr.IsNominal() {
		i, ok := attr.ValueIndex(s)
		if !ok {
			return 0, fmt.Errorf("unknown value %q of %s", s, attr.Name)
		}
		return float64(i), nil
	}
	return strconv.ParseFloat(s, 64)
}

// WriteCSV 写出表头和数据行
func WriteCSV(filename string, header []string, rows [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}
