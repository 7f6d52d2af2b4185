// Package plenario embeds the Câmara dos Deputados question-answering
// engine in a Go process: weighted multi-collection retrieval over local
// artifact pairs, self-ask question decomposition and a single answer
// generation call per question.
//
// # Asking questions
//
//	eng, err := plenario.New(ctx,
//	    plenario.WithDataDir("./data"),
//	    plenario.WithOpenAI(os.Getenv("OPENAI_API_KEY"), ""),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	ans, err := eng.Ask(ctx, "Quais partidos têm mais deputados?")
//
// # Retrieval without generation
//
//	hits, err := eng.Query("emendas sobre saúde").
//	    BaseK(12).
//	    Collections("insights_despesas").
//	    Do(ctx)
//
// Collections are read once at New from {name}_index.vec / {name}_data.parquet
// pairs built by the plenario-index CLI. Broken pairs are skipped, not fatal;
// Collections() reports both ready and skipped entries.
package plenario
