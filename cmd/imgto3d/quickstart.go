package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newQuickstartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quickstart",
		Short: "Show examples and usage instructions",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), quickstartText)
		},
	}
}

const quickstartText = `Quickstart Guide for imgto3d

1. Generate through the Python connector
   Runs StableDiffusionConnector.py with the image, output directory and key.

   export IMGTO3D_API_KEY=sk-...
   imgto3d generate \
     --python=python3 \
     --script=Assets/StableDiffusion/ImgTo3D/StableDiffusionConnector.py \
     --input=Assets/StableDiffusion/ImgTo3D/InputAssets/Ballon.jpg \
     --output=Assets/StableDiffusion/ImgTo3D/Output

2. Refresh the editor when the model lands in the project
   The rescan command receives the model path as its last argument.

   imgto3d generate ... \
     --asset-root=Assets \
     --rescan-cmd=unity-refresh --rescan-cmd=--project --rescan-cmd=.

3. Call the API without Python
   connect prints the same JSON envelope the script prints.

   imgto3d connect Ballon.jpg Output sk-...

   To use it as the connector, point --script at a wrapper:

   printf '#!/bin/sh\nexec imgto3d connect "$@"\n' > connector.sh
   imgto3d generate --python=sh --script=connector.sh ...

4. Configuration file
   Defaults, then imgto3d.yaml, then IMGTO3D_* variables, then flags.

   python: python3
   script: StableDiffusionConnector.py
   asset_root: Assets
   timeout: 5m
   metrics_file: /var/lib/node_exporter/imgto3d.prom
   log:
     level: info
     format: console`
