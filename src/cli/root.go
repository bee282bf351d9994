// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/H0llyW00dzZ/ct-submission-checker/src/internal/helper/posix"
	"github.com/H0llyW00dzZ/ct-submission-checker/src/internal/x509/checker"
	x509chain "github.com/H0llyW00dzZ/ct-submission-checker/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/ct-submission-checker/src/logger"
	"github.com/spf13/cobra"
)

var (
	rootsFile  string
	precert    bool
	tbsOutFile string
	jsonOutput bool
	treeOutput bool
)

// Execute runs the root command with verify, inspect, and roots
// subcommands. The returned error is whatever the executed subcommand
// reported; callers decide the exit code.
func Execute(version string, log logger.Logger) error {
	if log == nil {
		log = logger.NewCLILogger()
	}

	rootCmd := &cobra.Command{
		Use:     posix.GetExecutableName(),
		Short:   "Certificate Transparency submission checker",
		Long:    "Validates X.509 certificate chains and precertificate chains against a set of trust anchors, as a Certificate Transparency log does before accepting a submission.",
		Version: version,
	}

	rootCmd.AddCommand(newVerifyCmd(log))
	rootCmd.AddCommand(newInspectCmd(log))
	rootCmd.AddCommand(newRootsCmd(log))

	return rootCmd.Execute()
}

// newVerifyCmd builds the verify subcommand: validate a submitted chain
// file against a trust-anchor bundle and report the verdict.
func newVerifyCmd(log logger.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [CHAIN_FILE]",
		Short: "Validate a certificate chain against trust anchors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execVerify(log, args[0])
		},
	}

	cmd.Flags().StringVarP(&rootsFile, "roots", "r", "", "PEM bundle of trusted root certificates (required)")
	cmd.Flags().BoolVarP(&precert, "precert", "p", false, "treat the submission as a precertificate chain")
	cmd.Flags().StringVarP(&tbsOutFile, "tbs-out", "t", "", "write the reconstructed TBSCertificate to TBS_OUT_FILE (precert only)")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "print the verdict as JSON")
	cobra.CheckErr(cmd.MarkFlagRequired("roots"))

	return cmd
}

// verifyReport is the JSON shape of a verify run.
type verifyReport struct {
	Verdict       string `json:"verdict"`
	Category      string `json:"category,omitempty"`
	ChainLength   int    `json:"chainLength"`
	IssuerKeyHash string `json:"issuerKeyHash,omitempty"`
	TBSSize       int    `json:"tbsSize,omitempty"`
}

// execVerify loads the trust anchors, decodes the submitted chain, and runs
// the ordinary or precertificate validation path.
func execVerify(log logger.Logger, chainFile string) error {
	chk := checker.New(log)
	if _, err := chk.LoadTrustedCertificates(rootsFile); err != nil {
		return fmt.Errorf("failed to load trust anchors: %w", err)
	}

	chainData, err := os.ReadFile(chainFile)
	if err != nil {
		return fmt.Errorf("failed to read chain file: %w", err)
	}

	report := verifyReport{}

	if precert {
		ch, err := x509chain.NewPreCertChainFromBytes(chainData)
		if err != nil {
			return fmt.Errorf("failed to decode precert chain: %w", err)
		}

		verdict, keyHash, tbs := chk.CheckPreCertChain(ch)
		report.Verdict = verdict.String()
		report.ChainLength = ch.Length()
		if verdict == checker.OK {
			report.IssuerKeyHash = hex.EncodeToString(keyHash[:])
			report.TBSSize = len(tbs)
			if tbsOutFile != "" {
				if err := os.WriteFile(tbsOutFile, tbs, 0644); err != nil {
					return fmt.Errorf("failed to write TBS output: %w", err)
				}
			}
		}
		return printVerdict(log, report, verdict)
	}

	ch, err := x509chain.NewFromBytes(chainData)
	if err != nil {
		return fmt.Errorf("failed to decode chain: %w", err)
	}

	verdict := chk.CheckCertChain(ch)
	report.Verdict = verdict.String()
	report.ChainLength = ch.Length()
	return printVerdict(log, report, verdict)
}

// printVerdict renders the verdict report and converts a non-OK verdict
// into the command's error so the process exits non-zero.
func printVerdict(log logger.Logger, report verifyReport, verdict checker.Verdict) error {
	if category := verdict.Category(); category != nil {
		report.Category = category.Error()
	}

	if jsonOutput {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		log.Println(string(data))
	} else {
		log.Printf("Verdict: %s (chain length %d)", report.Verdict, report.ChainLength)
		if report.IssuerKeyHash != "" {
			log.Printf("Issuer key hash: %s", report.IssuerKeyHash)
			log.Printf("Reconstructed TBS: %d bytes", report.TBSSize)
		}
	}

	return verdict.Err()
}

// newInspectCmd builds the inspect subcommand: render a submitted chain as
// a table, tree, or JSON without validating it.
func newInspectCmd(log logger.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [CHAIN_FILE]",
		Short: "Render a certificate chain as a table, tree, or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chainData, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read chain file: %w", err)
			}

			ch, err := x509chain.NewFromBytes(chainData)
			if err != nil {
				return fmt.Errorf("failed to decode chain: %w", err)
			}

			switch {
			case jsonOutput:
				data, err := ch.ToVisualizationJSON()
				if err != nil {
					return err
				}
				log.Println(string(data))
			case treeOutput:
				log.Println(ch.RenderASCIITree())
			default:
				log.Println(ch.RenderTable())
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "output structured JSON")
	cmd.Flags().BoolVarP(&treeOutput, "tree", "T", false, "output an ASCII tree")

	return cmd
}

// newRootsCmd builds the roots subcommand: load one or more trust-anchor
// bundles and report how many new anchors each contributed. A malformed
// bundle adds nothing, which this command makes observable.
func newRootsCmd(log logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "roots [BUNDLE...]",
		Short: "Load trust-anchor bundles and report accepted counts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chk := checker.New(log)

			for _, bundle := range args {
				added, err := chk.LoadTrustedCertificates(bundle)
				if err != nil {
					return fmt.Errorf("bundle %s rejected (store still holds %d anchors): %w",
						bundle, chk.NumTrustedCertificates(), err)
				}
				log.Printf("%s: %d new trust anchors", bundle, added)
			}

			log.Printf("Trust store holds %d anchors", chk.NumTrustedCertificates())
			return nil
		},
	}
}
