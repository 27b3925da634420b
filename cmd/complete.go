package cmd

import (
	"flag"

	"github.com/etnz/tally/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion returns the shell completion of the command line, built from
// the global flags and every registered subcommand flags.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: flagPredictors(flag.CommandLine),
	}
	for _, c := range Commands {
		f := flag.NewFlagSet(c.cmd.Name(), flag.ContinueOnError)
		c.cmd.SetFlags(f)
		root.Sub[c.cmd.Name()] = &complete.Command{Flags: flagPredictors(f), Args: argPredictor(c.cmd.Name())}
	}
	for _, name := range []string{"help", "flags", "commands"} {
		root.Sub[name] = &complete.Command{}
	}
	return root
}

func flagPredictors(f *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	f.VisitAll(func(fl *flag.Flag) {
		switch fl.Name {
		case "data", "o":
			flags[fl.Name] = predict.Files("*.json")
		case "mirror":
			flags[fl.Name] = predict.Files("*.db")
		case "style":
			flags[fl.Name] = predict.Set{"auto", "dark", "light", "notty", "raw", "html"}
		case "kind":
			flags[fl.Name] = predict.Set{"transactional", "investment", "asset", "liability"}
		case "strategy":
			flags[fl.Name] = predict.Set{"base", "copy", "rollover"}
		default:
			flags[fl.Name] = predict.Something
		}
	})
	return flags
}

func argPredictor(name string) complete.Predictor {
	switch name {
	case "import":
		return predict.Files("*.jsonl")
	case "restore":
		return predict.Files("*.json")
	case "delete":
		return predict.Set{"currency", "institution", "account", "category", "rule", "statement", "transaction"}
	case "topic":
		topics, _ := docs.Topics()
		return predict.Set(topics)
	default:
		return nil
	}
}
