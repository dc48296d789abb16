package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"gitlab.grandhoo.com/rock/rock_seco/dataset"
	"gitlab.grandhoo.com/rock/rock_seco/rule"
	"gitlab.grandhoo.com/rock/rock_seco/rule_dig"
	"gitlab.grandhoo.com/rock/rock_seco/seco_config"
	"gitlab.grandhoo.com/rock/rock_seco/utils"
	"gitlab.grandhoo.com/rock/rock_seco/utils/seco_logger"
)

func main() {
	data := flag.String("data", "", "csv file, first row is the header")
	configPath := flag.String("config", "", "yaml config file")
	secoConfig := flag.String("seco_config", "", "inline yaml/json config, overrides -config per component")
	class := flag.String("class", "", "class column, default the last column")
	labels := flag.String("labels", "", "comma separated label columns, enables multi-label learning")
	weight := flag.String("weight", "", "weight column")
	logLevel := flag.String("log_level", "info", "debug/info/warn/error")
	out := flag.String("out", "", "write predictions of the training data to this csv")
	graph := flag.String("graph", "", "write the rule derivation graph in dot format to this file")
	flag.Parse()

	log, err := seco_logger.New(*logLevel)
	if err != nil {
		fmt.Printf("init logger failed, err:%v\n", err)
		os.Exit(1)
	}

	os.Exit(finish(log, run(log, *data, *configPath, *secoConfig, *class, *labels, *weight, *out, *graph)))
}

// finish 记录错误并刷日志, 返回退出码. os.Exit 不执行 defer
func finish(log *zap.SugaredLogger, err error) int {
	if err != nil {
		log.Errorf("learn failed, err:%v", err)
	}
	_ = log.Sync()
	if err != nil {
		return 1
	}
	return 0
}

func run(log *zap.SugaredLogger, data, configPath, inline, class, labels, weight, out, graph string) error {
	if data == "" {
		return fmt.Errorf("-data is required")
	}
	conf := seco_config.Config{}
	if configPath != "" {
		c, err := seco_config.LoadYAML(configPath)
		if err != nil {
			return err
		}
		conf = c
	}
	// 用传入的配置替换文件中的配置
	if inline != "" {
		c, err := seco_config.ParseYAML([]byte(inline))
		if err != nil {
			return err
		}
		for component, props := range c {
			conf[component] = props
		}
	}
	log.Infof("config: %v", conf)

	info := &utils.CsvInfo{Path: data, Class: class, Weight: weight}
	if labels != "" {
		for _, l := range strings.Split(labels, ",") {
			info.Labels = append(info.Labels, strings.TrimSpace(l))
		}
	}
	examples, err := utils.LoadExamples(info)
	if err != nil {
		return err
	}
	log.Infof("load %v examples, %v attributes from %s", examples.Len(), examples.NumAttributes(), data)

	learner, err := rule_dig.New(conf, log)
	if err != nil {
		return err
	}
	result, err := learner.Learn(examples)
	if err != nil {
		return err
	}
	fmt.Println(result.Theory.Table(examples))
	log.Infof("rules:%v, evaluated:%v, time:%v", result.Theory.Len(), result.Evaluated, result.Time)

	if graph != "" {
		dot, err := rule.DerivationGraph(result.Theory.Rules(), examples)
		if err != nil {
			return err
		}
		if err := os.WriteFile(graph, []byte(dot), 0o644); err != nil {
			return err
		}
	}
	if out != "" {
		return utils.WriteCSV(out, predictionHeader(examples), predictionRows(result.Theory, examples))
	}
	return nil
}

func predictionHeader(examples *dataset.Examples) []string {
	header := []string{"row"}
	for _, l := range examples.LabelIndices() {
		header = append(header, examples.Attribute(l).Name, "predicted_"+examples.Attribute(l).Name)
	}
	return header
}

func predictionRows(theory *rule.RuleSet, examples *dataset.Examples) [][]string {
	rows := make([][]string, 0, examples.Len())
	for i := 0; i < examples.Len(); i++ {
		e := examples.At(i)
		predicted := theory.PredictLabels(e)
		row := []string{fmt.Sprint(e.Index())}
		for _, l := range examples.LabelIndices() {
			attr := examples.Attribute(l)
			p := "?"
			if v, ok := predicted.Value(l); ok {
				p = attr.Format(v)
			}
			row = append(row, attr.Format(e.Value(l)), p)
		}
		rows = append(rows, row)
	}
	return rows
}
