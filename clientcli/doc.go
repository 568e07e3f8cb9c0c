// Package clientcli provides a client library for dirtar servers.
//
// It lists remote directories through the server's JSON listing and
// downloads directory archives, optionally unpacking them on the fly.
// Connection settings can be kept as named profiles in a YAML file.
//
// # Basic Usage
//
//	client, err := clientcli.New(&clientcli.Config{Server: "http://localhost:8080"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	listing, err := client.List(ctx, clientcli.ListOptions{Path: "docs"})
//
//	result, _, err := client.Get(ctx, clientcli.GetOptions{
//		RemotePath: "docs",
//		ExtractTo:  "./docs",
//	})
//
// # Profile Configuration
//
//	cfg, err := clientcli.LoadConfigFromFile(clientcli.DefaultConfigPath(), "production")
//
// # Output Formatting
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatList(os.Stdout, listing)
package clientcli
