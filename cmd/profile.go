package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/culturewave/showcase/sim/device"
	"github.com/culturewave/showcase/sim/particles"
)

var (
	userAgent     string
	cores         int
	memoryGB      float64
	gpuExtensions int
	noGPUContext  bool
)

// profileReport is what `showcase profile` prints.
type profileReport struct {
	Profile device.Profile `json:"profile"`
	Tier    string         `json:"tier"`
	GPU     string         `json:"gpu"`
	Budgets map[string]int `json:"particle_budgets"`
}

func buildProfileReport(host device.Host) profileReport {
	p := device.NewProfiler(host).Profile()
	gpu := "ok"
	if _, err := device.ProbeGPU(host.GPU); err != nil {
		gpu = err.Error()
	} else if p.WeakGPU {
		gpu = "weak"
	}
	budgets := make(map[string]int, 2)
	for _, role := range []particles.Role{particles.Dedicated, particles.Embedded} {
		budgets[role.String()] = particles.Ceiling(particles.RenderContext{Tier: p.Tier, Role: role})
	}
	return profileReport{Profile: p, Tier: p.Tier.String(), GPU: gpu, Budgets: budgets}
}

func (r profileReport) Print(w io.Writer) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Classify a host description and print its tier and particle budgets",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			logrus.Fatalf("Loading config: %v", err)
		}
		d := cfg.Device
		if cmd.Flags().Changed("user-agent") {
			d.UserAgent = userAgent
		}
		if cmd.Flags().Changed("cores") {
			d.Cores = cores
		}
		if cmd.Flags().Changed("memory") {
			d.MemoryGB = memoryGB
		}
		if cmd.Flags().Changed("gpu-extensions") {
			d.GPUExtensions = gpuExtensions
		}
		if cmd.Flags().Changed("no-gpu") {
			d.NoGPUContext = noGPUContext
		}
		if err := buildProfileReport(d.Host()).Print(os.Stdout); err != nil {
			logrus.Fatalf("Writing profile: %v", err)
		}
	},
}

func init() {
	profileCmd.Flags().StringVar(&userAgent, "user-agent", "", "User agent string")
	profileCmd.Flags().IntVar(&cores, "cores", 0, "Logical CPU cores (0 = unreported)")
	profileCmd.Flags().Float64Var(&memoryGB, "memory", 0, "Device memory in GB (0 = unreported)")
	profileCmd.Flags().IntVar(&gpuExtensions, "gpu-extensions", 0, "Number of supported GPU extensions")
	profileCmd.Flags().BoolVar(&noGPUContext, "no-gpu", false, "Simulate a host where no rendering context can be created")
}
