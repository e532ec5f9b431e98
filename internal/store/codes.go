package store

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
)

const maxCodeAttempts = 100

var errCodeSpaceExhausted = errors.New("could not generate a unique bracket code")

var (
	adjectives = []string{
		"brave", "calm", "clever", "eager", "fancy", "gentle", "happy", "jolly",
		"kind", "lucky", "mighty", "nimble", "proud", "quick", "silly", "swift",
		"tidy", "witty", "zany", "bold", "cosmic", "fuzzy", "grumpy", "sneaky",
	}
	colors = []string{
		"amber", "azure", "beige", "black", "blue", "bronze", "coral", "crimson",
		"gold", "gray", "green", "indigo", "ivory", "lime", "magenta", "olive",
		"orange", "pink", "purple", "red", "silver", "teal", "violet", "yellow",
	}
	animals = []string{
		"badger", "beaver", "bison", "cat", "cobra", "crow", "dingo", "eagle",
		"ferret", "fox", "gecko", "heron", "ibex", "koala", "lemur", "lynx",
		"moose", "otter", "panda", "quail", "raven", "shark", "tiger", "walrus",
	}
)

func randomCode() string {
	return strings.Join([]string{
		adjectives[rand.IntN(len(adjectives))],
		colors[rand.IntN(len(colors))],
		animals[rand.IntN(len(animals))],
	}, "-")
}

// allocateCode returns requested if it is free, or a fresh generated code
// when requested is empty.
func allocateCode(ctx context.Context, requested string, unique func(context.Context, string) (bool, error)) (string, error) {
	if requested != "" {
		ok, err := unique(ctx, requested)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", ErrCodeTaken
		}
		return requested, nil
	}
	for range maxCodeAttempts {
		code := randomCode()
		ok, err := unique(ctx, code)
		if err != nil {
			return "", err
		}
		if ok {
			return code, nil
		}
	}
	return "", errCodeSpaceExhausted
}
