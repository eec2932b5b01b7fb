package main

import (
	"strings"

	"smartclaim/internal/policy"

	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [file.pdf...]",
	Short: "Report whether PDFs look like insurance policies",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	classifier := policy.NewClassifier(cfg.ClassifierWindow)
	for _, path := range args {
		doc, err := extractFile(cmd, path)
		if err != nil {
			cmd.Printf("%s\tfailed\t%v\n", path, err)
			continue
		}
		c := classifier.Classify(doc.FullText)
		verdict := "policy"
		if !c.Likely {
			verdict = "not-policy"
		}
		cmd.Printf("%s\t%s\tgeneral=[%s]\tspecific=[%s]\n",
			path, verdict, strings.Join(c.General, ","), strings.Join(c.Specific, ","))
	}
	return nil
}
